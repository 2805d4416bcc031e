// Package auth is the storefront's auth backend adapter: credential
// sign-in/sign-up against the profiles store, session rows with rotating
// refresh tokens, locally persisted tokens for session restore, and
// auth-state-change fan-out to subscribers.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"geoshop/storefront/internal/config"
	"geoshop/storefront/internal/ids"
	"geoshop/storefront/internal/kv"
	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/repository"
	"geoshop/storefront/internal/security"
)

const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

const localSessionKey = "auth_session"

type localSession struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Client struct {
	profiles *repository.ProfileRepository
	sessions *repository.SessionRepository
	locker   *redis.Client
	store    kv.Store
	cfg      *config.AppConfig
	log      zerolog.Logger

	mu      sync.Mutex
	subs    map[int]func(event string, user *models.Identity)
	nextSub int
}

func NewClient(
	profiles *repository.ProfileRepository,
	sessions *repository.SessionRepository,
	locker *redis.Client,
	store kv.Store,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *Client {
	return &Client{
		profiles: profiles,
		sessions: sessions,
		locker:   locker,
		store:    store,
		cfg:      cfg,
		log:      log,
		subs:     map[int]func(string, *models.Identity){},
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return models.Identity{}, fmt.Errorf("email and password required")
	}

	if _, err := c.profiles.FindByEmail(ctx, email); err == nil {
		return models.Identity{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		return models.Identity{}, err
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return models.Identity{}, err
	}

	profile := models.Profile{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}
	if err := c.profiles.Create(ctx, profile); err != nil {
		return models.Identity{}, err
	}

	return c.establishSession(ctx, profile)
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	profile, err := c.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return models.Identity{}, ErrInvalidCredentials
		}
		return models.Identity{}, err
	}

	ok, err := security.VerifyPassword(password, profile.PasswordHash)
	if err != nil || !ok {
		return models.Identity{}, ErrInvalidCredentials
	}

	return c.establishSession(ctx, profile)
}

func (c *Client) establishSession(ctx context.Context, profile models.Profile) (models.Identity, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return models.Identity{}, err
	}

	session := models.AuthSession{
		ID:               ids.New(),
		UserID:           profile.ID,
		RefreshTokenHash: refreshHash,
		ExpiresAt:        time.Now().Add(c.cfg.Security.JWTRefreshTTL),
	}
	if err := c.sessions.Save(ctx, session); err != nil {
		return models.Identity{}, err
	}

	accessToken, err := security.GenerateAccessToken(
		c.cfg.Security.JWTAccessSecret,
		profile.ID,
		session.ID,
		profile.Email,
		c.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return models.Identity{}, err
	}

	local := localSession{
		UserID:       profile.ID,
		Email:        profile.Email,
		SessionID:    session.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if err := c.persistLocal(local); err != nil {
		return models.Identity{}, err
	}

	identity := models.Identity{ID: profile.ID, Email: profile.Email}
	c.notify(EventSignedIn, &identity)
	return identity, nil
}

// GetSession restores the current session from locally persisted tokens,
// refreshing through the backend when the access token has expired. A
// concurrent refresh by another client surfaces as a transient lock error.
func (c *Client) GetSession(ctx context.Context) (*models.Identity, error) {
	local, ok := c.loadLocal()
	if !ok {
		return nil, nil
	}

	if claims, err := security.ParseAccessToken(local.AccessToken, c.cfg.Security.JWTAccessSecret); err == nil {
		return &models.Identity{ID: claims.UserID, Email: claims.Email}, nil
	}

	return c.refreshSession(ctx, local)
}

func (c *Client) refreshSession(ctx context.Context, local localSession) (*models.Identity, error) {
	lockKey := "geoshop:auth:refresh:" + local.UserID
	acquired, err := c.locker.SetNX(ctx, lockKey, local.SessionID, c.cfg.Security.RefreshLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("session refresh lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("could not acquire session refresh lock for user %s", local.UserID)
	}
	defer c.locker.Del(context.WithoutCancel(ctx), lockKey)

	refreshHash := security.HashRefreshToken(local.RefreshToken)
	session, err := c.sessions.FindByRefreshHash(ctx, local.UserID, refreshHash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Token was rotated elsewhere or revoked; drop local state.
			c.clearLocal()
			return nil, nil
		}
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		_ = c.sessions.DeleteByID(ctx, session.ID)
		c.clearLocal()
		return nil, nil
	}

	profile, err := c.profiles.GetByID(ctx, local.UserID)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return nil, err
	}
	session.RefreshTokenHash = refreshHash
	session.ExpiresAt = time.Now().Add(c.cfg.Security.JWTRefreshTTL)
	if err := c.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	accessToken, err := security.GenerateAccessToken(
		c.cfg.Security.JWTAccessSecret,
		profile.ID,
		session.ID,
		profile.Email,
		c.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return nil, err
	}

	local.Email = profile.Email
	local.AccessToken = accessToken
	local.RefreshToken = refreshToken
	if err := c.persistLocal(local); err != nil {
		return nil, err
	}

	identity := models.Identity{ID: profile.ID, Email: profile.Email}
	c.notify(EventTokenRefreshed, &identity)
	return &identity, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	local, ok := c.loadLocal()
	if !ok {
		return nil
	}

	if err := c.sessions.DeleteByID(ctx, local.SessionID); err != nil {
		c.log.Warn().Err(err).Msg("delete auth session failed")
	}
	c.clearLocal()
	c.notify(EventSignedOut, nil)
	return nil
}

// OnAuthStateChange registers fn for sign-in/sign-out/refresh events and
// returns its cancellation func.
func (c *Client) OnAuthStateChange(fn func(event string, user *models.Identity)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Client) notify(event string, user *models.Identity) {
	c.mu.Lock()
	listeners := make([]func(string, *models.Identity), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(event, user)
	}
}

func (c *Client) loadLocal() (localSession, bool) {
	raw, ok := c.store.Get(localSessionKey)
	if !ok || raw == "" {
		return localSession{}, false
	}
	var local localSession
	if err := json.Unmarshal([]byte(raw), &local); err != nil {
		c.clearLocal()
		return localSession{}, false
	}
	return local, true
}

func (c *Client) persistLocal(local localSession) error {
	data, err := json.Marshal(local)
	if err != nil {
		return fmt.Errorf("encode local session: %w", err)
	}
	return c.store.Set(localSessionKey, string(data))
}

func (c *Client) clearLocal() {
	if err := c.store.Delete(localSessionKey); err != nil {
		c.log.Warn().Err(err).Msg("clear local session failed")
	}
}
