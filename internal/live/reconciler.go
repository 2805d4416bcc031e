// Package live keeps the product and order views consistent with the
// backend. Any change notification triggers a full re-fetch of the
// affected resource; the per-user order feed additionally derives "my
// order status changed" notices with an auto-expiring timer.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/realtime"
)

type CatalogSource interface {
	List(ctx context.Context) ([]models.Product, error)
}

type OrderSource interface {
	List(ctx context.Context) ([]models.Order, error)
	LatestByUser(ctx context.Context, userID string) (models.Order, error)
}

type Feed interface {
	Subscribe(ctx context.Context, table string, filter realtime.Filter) (*realtime.Subscription, error)
}

type Reconciler struct {
	catalog   CatalogSource
	orders    OrderSource
	feed      Feed
	noticeTTL time.Duration
	log       zerolog.Logger

	// startMu serializes Start/Close; auth-change fan-out may call Start
	// from more than one goroutine.
	startMu sync.Mutex

	mu          sync.Mutex
	products    []models.Product
	productsErr error
	orderList   []models.Order
	ordersErr   error
	notice      string
	noticeTimer *time.Timer
	userID      string
	started     bool
	subs        []*realtime.Subscription
	wg          sync.WaitGroup
}

func NewReconciler(catalog CatalogSource, orders OrderSource, feed Feed, noticeTTL time.Duration, log zerolog.Logger) *Reconciler {
	if noticeTTL <= 0 {
		noticeTTL = 8 * time.Second
	}
	return &Reconciler{
		catalog:   catalog,
		orders:    orders,
		feed:      feed,
		noticeTTL: noticeTTL,
		log:       log,
	}
}

// Start opens the standing subscriptions for the given identity and
// performs the initial fetches. Calling it again for the same identity is
// a no-op, so listeners never accumulate; a different identity tears down
// the old subscriptions first.
func (r *Reconciler) Start(ctx context.Context, userID string) error {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.mu.Lock()
	if r.started && r.userID == userID {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	r.stop()

	productSub, err := r.feed.Subscribe(ctx, "products", realtime.Filter{})
	if err != nil {
		return fmt.Errorf("subscribe products: %w", err)
	}
	orderSub, err := r.feed.Subscribe(ctx, "orders", realtime.Filter{})
	if err != nil {
		productSub.Close()
		return fmt.Errorf("subscribe orders: %w", err)
	}

	subs := []*realtime.Subscription{productSub, orderSub}

	var userSub *realtime.Subscription
	if userID != "" {
		userSub, err = r.feed.Subscribe(ctx, "orders", realtime.Filter{
			Types:  []realtime.EventType{realtime.EventUpdate},
			UserID: userID,
		})
		if err != nil {
			productSub.Close()
			orderSub.Close()
			return fmt.Errorf("subscribe user orders: %w", err)
		}
		subs = append(subs, userSub)
	}

	r.mu.Lock()
	r.userID = userID
	r.started = true
	r.subs = subs
	r.mu.Unlock()

	r.consume(productSub, func(realtime.Event) { r.RefreshProducts(ctx) })
	r.consume(orderSub, func(realtime.Event) { r.RefreshOrders(ctx) })
	if userSub != nil {
		r.consume(userSub, r.deriveNotice)
	}

	r.RefreshProducts(ctx)
	r.RefreshOrders(ctx)
	if userID != "" {
		r.seedNotice(ctx, userID)
	}
	return nil
}

func (r *Reconciler) consume(sub *realtime.Subscription, handle func(realtime.Event)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for ev := range sub.Events {
			handle(ev)
		}
	}()
}

func (r *Reconciler) RefreshProducts(ctx context.Context) {
	products, err := r.catalog.List(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		// keep the last-known-good catalog; only the error is recorded
		r.log.Error().Err(err).Msg("failed to fetch products")
		r.productsErr = err
		return
	}
	r.products = products
	r.productsErr = nil
}

func (r *Reconciler) RefreshOrders(ctx context.Context) {
	orders, err := r.orders.List(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.log.Error().Err(err).Msg("failed to fetch orders")
		r.ordersErr = err
		return
	}
	r.orderList = orders
	r.ordersErr = nil
}

// seedNotice surfaces an already-decided latest order on first load, so a
// user who was away when the admin acted still sees the outcome.
func (r *Reconciler) seedNotice(ctx context.Context, userID string) {
	order, err := r.orders.LatestByUser(ctx, userID)
	if err != nil {
		return
	}
	if order.Status != models.OrderStatusPending {
		r.SetNotice(fmt.Sprintf("Order %s status: %s.", order.ID, order.Status))
	}
}

type orderStatusRow struct {
	ID     string             `json:"id"`
	Status models.OrderStatus `json:"status"`
}

// deriveNotice consumes UPDATE events on the user's orders and raises a
// notice only when the status actually changed.
func (r *Reconciler) deriveNotice(ev realtime.Event) {
	var oldRow, newRow orderStatusRow
	_ = json.Unmarshal(ev.Old, &oldRow)
	if err := json.Unmarshal(ev.New, &newRow); err != nil {
		return
	}

	if newRow.Status != "" && newRow.Status != oldRow.Status {
		r.SetNotice(fmt.Sprintf("Order %s status: %s.", newRow.ID, newRow.Status))
	}
}

// SetNotice replaces the current notice and resets its expiry timer.
func (r *Reconciler) SetNotice(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notice = message
	if r.noticeTimer != nil {
		r.noticeTimer.Stop()
	}
	r.noticeTimer = time.AfterFunc(r.noticeTTL, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.notice == message {
			r.notice = ""
		}
	})
}

func (r *Reconciler) Notice() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notice
}

func (r *Reconciler) Products() ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products, r.productsErr
}

func (r *Reconciler) Orders() ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderList, r.ordersErr
}

// Resync re-fetches both resources, the cron-driven safety net under the
// change feed.
func (r *Reconciler) Resync(ctx context.Context) {
	r.RefreshProducts(ctx)
	r.RefreshOrders(ctx)
}

func (r *Reconciler) stop() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.started = false
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	r.wg.Wait()
}

func (r *Reconciler) Close() {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.noticeTimer != nil {
		r.noticeTimer.Stop()
	}
}
