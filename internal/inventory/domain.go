// Package inventory owns per-variant stock: the ledger primitives every
// stock writer must route through, SKU identity, and the variant reconciler.
package inventory

import (
	"errors"
	"time"
)

// Variant is a color-differentiated stock-keeping unit under a product.
// Sequence is assigned at creation and never reused; it is the SKU's stable
// identity even if color or stock change later.
type Variant struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Color     string    `json:"color"`
	Stock     int       `json:"stock"`
	SKU       string    `json:"sku"`
	Sequence  int       `json:"sequence"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrStockInsufficient is raised when the conditional decrement matches
	// zero rows: the variant vanished, was deactivated, or a concurrent sale
	// consumed the stock first. The encompassing transaction must roll back.
	ErrStockInsufficient = errors.New("inventory: insufficient stock")
	// ErrVariantNotFound indicates an unknown variant.
	ErrVariantNotFound = errors.New("inventory: variant not found")
	// ErrProductNotFound indicates an unknown or deleted product.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrForbidden indicates the actor lacks the role or location scope.
	ErrForbidden = errors.New("inventory: forbidden")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
)
