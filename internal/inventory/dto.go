package inventory

// VariantSyncInput is one entry of the desired variant list. An entry with
// an ID keeps/updates that variant; one without creates a new variant. Stock
// is a direct set applied only when explicitly supplied.
type VariantSyncInput struct {
	ID    *int64 `json:"id,omitempty" validate:"omitempty,gt=0"`
	Color string `json:"color" validate:"required,max=60"`
	Stock *int   `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// SyncVariantsRequest carries the full desired variant set for a product.
// An empty list deactivates every active variant.
type SyncVariantsRequest struct {
	Variants []VariantSyncInput `json:"variants" validate:"dive"`
}

// VariantAddInput describes one variant for the append-only creation path.
type VariantAddInput struct {
	Color string `json:"color" validate:"required,max=60"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// AddVariantsRequest appends variants without touching existing ones.
type AddVariantsRequest struct {
	Variants []VariantAddInput `json:"variants" validate:"required,min=1,dive"`
}

// AdjustStockRequest is an administrative restock (or correction). The delta
// goes through the ledger primitives, so a negative adjustment can never
// push stock below zero.
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}
