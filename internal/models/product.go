package models

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Product is an externally owned catalog record. The backing schema varies
// between deployments (images may live in an array column, a single image
// column, or image_url), so the decoded fields are all optional and the raw
// row is kept for column discovery.
type Product struct {
	Raw map[string]any `mapstructure:"-" json:"-"`

	Name        string   `mapstructure:"name" json:"name"`
	Category    string   `mapstructure:"category" json:"category"`
	Description string   `mapstructure:"description" json:"description,omitempty"`
	Price       *float64 `mapstructure:"price" json:"price"`
	Rating      *float64 `mapstructure:"rating" json:"rating,omitempty"`
	Reviews     *int     `mapstructure:"reviews" json:"reviews,omitempty"`
	Images      []string `mapstructure:"images" json:"images,omitempty"`
	Image       string   `mapstructure:"image" json:"image,omitempty"`
	ImageURL    string   `mapstructure:"image_url" json:"image_url,omitempty"`
	Badge       string   `mapstructure:"badge" json:"badge,omitempty"`
}

// DecodeProduct builds a Product from a raw backend row, tolerating missing
// and weakly typed fields.
func DecodeProduct(row map[string]any) (Product, error) {
	product := Product{Raw: row}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &product,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Product{}, fmt.Errorf("product decoder: %w", err)
	}
	if err := decoder.Decode(row); err != nil {
		return Product{}, fmt.Errorf("decode product: %w", err)
	}
	return product, nil
}

// Key derives the stable join key between catalog and cart: product_id,
// id, sku or name, in that priority, coerced to a string.
func (p Product) Key() string {
	for _, column := range []string{"product_id", "id", "sku"} {
		if value, ok := p.Raw[column]; ok && value != nil {
			return fmt.Sprint(value)
		}
	}
	return p.Name
}

// PrimaryImage resolves the display image from the first of the image
// array, the single image column, or the image_url column.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	if p.Image != "" {
		return p.Image
	}
	return p.ImageURL
}

// Columns reports the column set of the backing row, the capability set an
// admin insert may target.
func (p Product) Columns() []string {
	columns := make([]string, 0, len(p.Raw))
	for column := range p.Raw {
		columns = append(columns, column)
	}
	return columns
}
