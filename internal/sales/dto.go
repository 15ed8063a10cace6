package sales

import "time"

// LineInput is one (variant, quantity, discount) request item. No price
// field exists on purpose: lines are always priced from the catalog's
// current sale price.
type LineInput struct {
	VariantID int64 `json:"variant_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
	Discount  int64 `json:"discount" validate:"gte=0"`
}

// CreateSaleRequest is the engine's create payload. Channel and the status
// fields default for POS; the storefront adapter overrides them.
type CreateSaleRequest struct {
	Lines         []LineInput   `json:"lines" validate:"required,min=1,dive"`
	CustomerID    int64         `json:"customer_id" validate:"required,gt=0"`
	LocationID    int64         `json:"location_id" validate:"required,gt=0"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER ONLINE"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,oneof=PAID PENDING REFUNDED CANCELLED"`
	SaleStatus    SaleStatus    `json:"sale_status,omitempty" validate:"omitempty,oneof=NEW COMPLETED CANCELLED"`
	SaleDate      *time.Time    `json:"sale_date,omitempty"`
	Notes         *string       `json:"notes,omitempty" validate:"omitempty,max=2000"`

	Channel          Channel `json:"-"`
	OrderRef         *string `json:"-"`
	GatewayTxnID     *string `json:"-"`
	GatewayReference *string `json:"-"`
}

// UpdateSaleRequest is an explicit patch. Nil means "leave unchanged"; a
// non-nil Lines triggers the restore-then-reapply stock path, everything
// else is a stock-neutral administrative patch.
type UpdateSaleRequest struct {
	Lines         *[]LineInput   `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" validate:"omitempty,oneof=CASH CARD TRANSFER ONLINE"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty" validate:"omitempty,oneof=PAID PENDING REFUNDED CANCELLED"`
	SaleStatus    *SaleStatus    `json:"sale_status,omitempty" validate:"omitempty,oneof=NEW COMPLETED CANCELLED"`
	SaleDate      *time.Time     `json:"sale_date,omitempty"`
	Notes         *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
	CustomerID    *int64         `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
}

// ListSalesRequest filters sale listings.
type ListSalesRequest struct {
	LocationID *int64
	CustomerID *int64
	Status     *SaleStatus
	Channel    *Channel
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// ReceiptView is the public verification payload: enough to confirm a
// purchase without leaking internal identifiers.
type ReceiptView struct {
	Code        string     `json:"code"`
	TotalAmount int64      `json:"total_amount"`
	SaleStatus  SaleStatus `json:"sale_status"`
	SaleDate    time.Time  `json:"sale_date"`
	Lines       int        `json:"lines"`
}
