package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/realtime"
)

const productsTable = "products"

// ProductRepository reads the catalog tolerantly of schema variance: rows
// come back as json so sparse and unknown columns survive, and inserts
// take an explicit column-to-value payload built by the admin path.
type ProductRepository struct {
	pool      *pgxpool.Pool
	publisher *realtime.Publisher
}

func NewProductRepository(pool *pgxpool.Pool, publisher *realtime.Publisher) *ProductRepository {
	return &ProductRepository{pool: pool, publisher: publisher}
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	const query = `SELECT COALESCE(json_agg(row_to_json(p)), '[]'::json) FROM products p`

	row := r.pool.QueryRow(ctx, query)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode catalog rows: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, raw := range rows {
		product, err := models.DecodeProduct(raw)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

// Insert writes a product from a dynamic column payload. Columns are
// sorted so the statement shape is deterministic.
func (r *ProductRepository) Insert(ctx context.Context, payload map[string]any) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty product payload")
	}

	columns := make([]string, 0, len(payload))
	for column := range payload {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = pgx.Identifier{column}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = payload[column]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		productsTable,
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return err
	}

	if newRow, err := json.Marshal(payload); err == nil {
		_ = r.publisher.Publish(ctx, realtime.Event{
			Table: productsTable,
			Type:  realtime.EventInsert,
			New:   newRow,
		})
	}
	return nil
}
