package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/realtime"
)

var ErrOrderNotFound = errors.New("order not found")

const ordersTable = "orders"

type OrderRepository struct {
	pool      *pgxpool.Pool
	publisher *realtime.Publisher
}

func NewOrderRepository(pool *pgxpool.Pool, publisher *realtime.Publisher) *OrderRepository {
	return &OrderRepository{pool: pool, publisher: publisher}
}

func (r *OrderRepository) Create(ctx context.Context, order models.Order) error {
	const query = `
		INSERT INTO orders (
			id, user_id, items, status, created_at
		) VALUES (
			$1, $2, $3, $4, NOW()
		)
	`

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query,
		order.ID,
		order.UserID,
		items,
		order.Status,
	); err != nil {
		return err
	}

	if newRow, err := json.Marshal(order); err == nil {
		_ = r.publisher.Publish(ctx, realtime.Event{
			Table:  ordersTable,
			Type:   realtime.EventInsert,
			UserID: order.UserID,
			New:    newRow,
		})
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	const query = `
		SELECT id, user_id, items, status, created_at
		FROM orders
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) LatestByUser(ctx context.Context, userID string) (models.Order, error) {
	const query = `
		SELECT id, user_id, items, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return models.Order{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.Order{}, err
		}
		return models.Order{}, ErrOrderNotFound
	}
	return scanOrder(rows)
}

// UpdateStatus transitions an order's status, the only mutation orders
// support, and publishes the old and new rows so user feeds can diff them.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	const query = `
		UPDATE orders o
		SET status = $2
		FROM (SELECT id, user_id, status FROM orders WHERE id = $1 FOR UPDATE) prev
		WHERE o.id = prev.id
		RETURNING prev.user_id, prev.status
	`

	row := r.pool.QueryRow(ctx, query, id, status)
	var (
		userID     string
		prevStatus models.OrderStatus
	)
	if err := row.Scan(&userID, &prevStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}

	oldRow, _ := json.Marshal(map[string]any{"id": id, "user_id": userID, "status": prevStatus})
	newRow, _ := json.Marshal(map[string]any{"id": id, "user_id": userID, "status": status})
	_ = r.publisher.Publish(ctx, realtime.Event{
		Table:  ordersTable,
		Type:   realtime.EventUpdate,
		UserID: userID,
		Old:    oldRow,
		New:    newRow,
	})
	return nil
}

func scanOrder(rows pgx.Rows) (models.Order, error) {
	var (
		order models.Order
		items []byte
	)
	if err := rows.Scan(
		&order.ID,
		&order.UserID,
		&items,
		&order.Status,
		&order.CreatedAt,
	); err != nil {
		return models.Order{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return models.Order{}, fmt.Errorf("decode order items: %w", err)
		}
	}
	return order, nil
}
