// Package admin implements the privileged mutation path: product creation
// against whatever columns the catalog schema actually has, and order
// status transitions. Role gating happens at the HTTP surface; the backend
// enforces authorization independently.
package admin

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"geoshop/storefront/internal/models"
)

var (
	ErrMissingFields = errors.New("name and category are required")
	ErrInvalidStatus = errors.New("invalid order status")
)

// Catalog supplies the example records the column set is derived from;
// in production this is the live reconciler's product snapshot.
type Catalog interface {
	Products() ([]models.Product, error)
}

type ProductWriter interface {
	Insert(ctx context.Context, payload map[string]any) error
}

type OrderAdmin interface {
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

type ImageStore interface {
	UploadProductImage(ctx context.Context, uploaderID string, fileName string, reader io.Reader, size int64, contentType string) (string, error)
}

// fallbackColumns is the minimal payload shape used when the catalog is
// empty and no example record exists to derive columns from.
var fallbackColumns = []string{"name", "category", "description", "price", "rating", "reviews", "images"}

type Service struct {
	catalog  Catalog
	products ProductWriter
	orders   OrderAdmin
	images   ImageStore
	log      zerolog.Logger
}

func NewService(catalog Catalog, products ProductWriter, orders OrderAdmin, images ImageStore, log zerolog.Logger) *Service {
	return &Service{
		catalog:  catalog,
		products: products,
		orders:   orders,
		images:   images,
		log:      log,
	}
}

type ProductInput struct {
	Name        string
	Category    string
	Description string
	Price       *float64
	Rating      *float64
	Reviews     *float64
	ImageURL    string
}

// UploadImage stores a product image and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, adminID string, fileName string, reader io.Reader, size int64, contentType string) (string, error) {
	return s.images.UploadProductImage(ctx, adminID, fileName, reader, size, contentType)
}

// CreateProduct validates the input, restricts the payload to the columns
// the backend schema is known to support, and inserts. When the catalog is
// empty the primary attempt uses the fixed minimal column set; a rejected
// primary insert falls back to the image_url payload shape some schemas
// use instead of an images array.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	if input.Name == "" || input.Category == "" {
		return ErrMissingFields
	}

	known := s.knownColumns()
	payload := buildPayload(known, input)

	err := s.products.Insert(ctx, payload)
	if err != nil && len(known) == 0 {
		s.log.Warn().Err(err).Msg("primary product insert rejected, trying image_url shape")
		err = s.products.Insert(ctx, map[string]any{
			"name":        input.Name,
			"category":    input.Category,
			"description": input.Description,
			"image_url":   input.ImageURL,
		})
	}
	return err
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.orders.UpdateStatus(ctx, orderID, status)
}

// knownColumns derives the schema descriptor from an example existing
// record; an empty or unreadable catalog yields no descriptor.
func (s *Service) knownColumns() []string {
	products, err := s.catalog.Products()
	if err != nil || len(products) == 0 {
		return nil
	}
	return products[0].Columns()
}

func buildPayload(known []string, input ProductInput) map[string]any {
	base := map[string]any{
		"name":        input.Name,
		"category":    input.Category,
		"description": input.Description,
	}
	if input.ImageURL != "" {
		base["images"] = []string{input.ImageURL}
		base["image_url"] = input.ImageURL
		base["image"] = input.ImageURL
	}
	if input.Price != nil {
		base["price"] = *input.Price
	}
	if input.Rating != nil {
		base["rating"] = *input.Rating
	}
	if input.Reviews != nil {
		base["reviews"] = *input.Reviews
	}

	columns := known
	if len(columns) == 0 {
		columns = fallbackColumns
	}

	payload := map[string]any{}
	for _, column := range columns {
		if value, ok := base[column]; ok {
			payload[column] = value
		}
	}

	// Required display fields survive even when the example record lacked
	// the column (a sparse row hides columns that are merely null).
	payload["name"] = input.Name
	payload["category"] = input.Category
	payload["description"] = input.Description

	if input.ImageURL != "" {
		hasImage := false
		for _, column := range []string{"images", "image_url", "image"} {
			if _, ok := payload[column]; ok {
				hasImage = true
				break
			}
		}
		if !hasImage {
			payload["images"] = []string{input.ImageURL}
		}
	}

	return payload
}
