package models

import "time"

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected:
		return true
	}
	return false
}

// LineItem is one product-and-quantity entry within a cart or order.
type LineItem struct {
	ProductID string   `json:"product_id" mapstructure:"product_id"`
	Name      string   `json:"name" mapstructure:"name"`
	Category  string   `json:"category" mapstructure:"category"`
	Image     string   `json:"image,omitempty" mapstructure:"image"`
	Price     *float64 `json:"price" mapstructure:"price"`
	Quantity  int      `json:"quantity" mapstructure:"quantity"`
}

// Order is immutable once created except for its status, which only an
// admin actor transitions.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Items     []LineItem  `json:"items"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}
