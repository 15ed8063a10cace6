package catalog

import (
	"errors"
	"time"
)

// ProductStatus enumerates product lifecycle states.
type ProductStatus string

const (
	// ProductStatusActive means the product is sellable.
	ProductStatusActive ProductStatus = "ACTIVE"
	// ProductStatusInactive hides the product without losing history.
	ProductStatusInactive ProductStatus = "INACTIVE"
	// ProductStatusDeleted is the soft-delete terminal state.
	ProductStatusDeleted ProductStatus = "DELETED"
)

// Product is the sellable master record. Stock lives on its variants, never
// here; the engine reads SalePrice at the moment a line is priced.
type Product struct {
	ID            int64
	Name          string
	Slug          string
	Description   string
	PurchasePrice int64
	OldPrice      *int64
	SalePrice     int64
	Status        ProductStatus
	Barcode       *string
	LocationID    int64
	CategoryID    int64
	BrandID       *int64
	ProviderID    *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	// ErrNotFound indicates an unknown product.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrDuplicateSlug indicates a name collision after slugification.
	ErrDuplicateSlug = errors.New("catalog: slug already exists")
	// ErrDuplicateBarcode indicates the barcode is taken.
	ErrDuplicateBarcode = errors.New("catalog: barcode already exists")
)
