package catalog

// CreateProductRequest is the payload for product creation.
type CreateProductRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description" validate:"max=5000"`
	PurchasePrice int64   `json:"purchase_price" validate:"gte=0"`
	OldPrice      *int64  `json:"old_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice     int64   `json:"sale_price" validate:"required,gt=0"`
	Barcode       *string `json:"barcode,omitempty" validate:"omitempty,max=64"`
	LocationID    int64   `json:"location_id" validate:"required,gt=0"`
	CategoryID    int64   `json:"category_id" validate:"required,gt=0"`
	BrandID       *int64  `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
	ProviderID    *int64  `json:"provider_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateProductRequest is an explicit patch: nil means "leave unchanged".
// Omission versus explicit null is resolved here, once, instead of in ad-hoc
// merge logic per call site.
type UpdateProductRequest struct {
	Name          *string        `json:"name,omitempty" validate:"omitempty,max=200"`
	Description   *string        `json:"description,omitempty" validate:"omitempty,max=5000"`
	PurchasePrice *int64         `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	OldPrice      *int64         `json:"old_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice     *int64         `json:"sale_price,omitempty" validate:"omitempty,gt=0"`
	Status        *ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE DELETED"`
	Barcode       *string        `json:"barcode,omitempty" validate:"omitempty,max=64"`
	CategoryID    *int64         `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	BrandID       *int64         `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
	ProviderID    *int64         `json:"provider_id,omitempty" validate:"omitempty,gt=0"`
}

// ListProductsRequest filters product listings.
type ListProductsRequest struct {
	LocationID *int64         `json:"location_id,omitempty"`
	CategoryID *int64         `json:"category_id,omitempty"`
	Status     *ProductStatus `json:"status,omitempty"`
	Search     string         `json:"search,omitempty"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
}
