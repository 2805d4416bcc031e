// Package session owns the current-user/role state of the storefront. It
// hydrates once at startup and again on every auth-change notification,
// serializing those hydrations and discarding stale ones so an in-flight
// role lookup can never overwrite fresher state.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/retry"
)

// Snapshot is the session state consumers read. While Loading is true,
// User and Role are not authoritative. Role is set only when User is.
type Snapshot struct {
	User    *models.Identity
	Role    models.Role
	Loading bool
}

type AuthBackend interface {
	GetSession(ctx context.Context) (*models.Identity, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn func(event string, user *models.Identity)) func()
}

type RoleLookup interface {
	RoleByID(ctx context.Context, id string) (models.Role, error)
}

type Manager struct {
	backend AuthBackend
	roles   RoleLookup
	retry   retry.Options
	log     zerolog.Logger

	mu      sync.Mutex
	user    *models.Identity
	role    models.Role
	loading bool
	active  bool
	version uint64

	events      chan *models.Identity
	quit        chan struct{}
	wg          sync.WaitGroup
	unsubscribe func()
	closeOnce   sync.Once
}

func NewManager(backend AuthBackend, roles RoleLookup, opts retry.Options, log zerolog.Logger) *Manager {
	return &Manager{
		backend: backend,
		roles:   roles,
		retry:   opts,
		log:     log,
		loading: true,
		active:  true,
		events:  make(chan *models.Identity, 16),
		quit:    make(chan struct{}),
	}
}

// Start begins the initial hydration and subscribes to auth-change
// notifications. Auth-change hydrations run one at a time, in arrival
// order, off a single-slot worker.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.loop(ctx)

	m.unsubscribe = m.backend.OnAuthStateChange(func(_ string, user *models.Identity) {
		select {
		case m.events <- user:
		case <-m.quit:
		}
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		user, err := retry.Do(ctx, m.retry, m.backend.GetSession)
		if err != nil {
			m.log.Error().Err(err).Msg("failed to restore auth session")
			m.hydrate(ctx, nil)
			return
		}
		m.hydrate(ctx, user)
	}()
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-m.quit:
			return
		case user := <-m.events:
			m.hydrate(ctx, user)
		}
	}
}

// hydrate applies a new identity, then its role. Each run is stamped with
// a version; a run that finds a newer version after its role lookup
// resolves skips its writes.
func (m *Manager) hydrate(ctx context.Context, next *models.Identity) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.version++
	version := m.version
	m.user = next
	if next == nil {
		m.role = ""
		m.loading = false
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	role := m.fetchRole(ctx, next.ID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || version != m.version {
		return
	}
	m.role = role
	m.loading = false
}

func (m *Manager) fetchRole(ctx context.Context, userID string) models.Role {
	role, err := m.roles.RoleByID(ctx, userID)
	if err != nil || role == "" {
		if err != nil {
			m.log.Debug().Err(err).Str("user_id", userID).Msg("role lookup failed, defaulting")
		}
		return models.RoleUser
	}
	return role
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{Role: m.role, Loading: m.loading}
	if m.user != nil {
		user := *m.user
		snap.User = &user
	}
	return snap
}

// SignOut invokes the backend sign-out through the retry wrapper. The
// resulting auth-change notification drives the state transition.
func (m *Manager) SignOut(ctx context.Context) error {
	_, err := retry.Do(ctx, m.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.backend.SignOut(ctx)
	})
	return err
}

// Close marks the manager inactive so in-flight hydrations become no-ops,
// and unsubscribes from auth-change notifications.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.active = false
		m.mu.Unlock()

		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		close(m.quit)
		m.wg.Wait()
	})
}
