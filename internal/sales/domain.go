// Package sales is the sale transaction engine: it prices lines from the
// catalog's authoritative sale price, decrements stock through the inventory
// ledger, and persists Sale + SaleItems as one atomic unit. Compensating
// operations (edit, delete, cancel) restore stock through the same ledger
// inside the same transaction discipline.
package sales

import (
	"errors"
	"time"
)

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentOnline   PaymentMethod = "ONLINE"
)

// PaymentStatus tracks money state independently of the sale lifecycle.
type PaymentStatus string

const (
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// SaleStatus is the sale lifecycle. There is no persisted intermediate
// state: a sale row exists only after its whole transaction committed.
type SaleStatus string

const (
	SaleStatusNew       SaleStatus = "NEW"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// Channel distinguishes point-of-sale from storefront orders.
type Channel string

const (
	ChannelPOS       Channel = "POS"
	ChannelEcommerce Channel = "ECOMMERCE"
)

// Sale is the immutable transaction record. TotalAmount is always recomputed
// from items, never accepted from the caller.
type Sale struct {
	ID            int64         `json:"id"`
	Code          string        `json:"code"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	SaleStatus    SaleStatus    `json:"sale_status"`
	SaleDate      time.Time     `json:"sale_date"`
	Notes         *string       `json:"notes,omitempty"`
	CustomerID    int64         `json:"customer_id"`
	LocationID    int64         `json:"location_id"`
	OperatorID    int64         `json:"operator_id"`
	Channel       Channel       `json:"channel"`

	// storefront linkage, null for POS sales
	OrderRef         *string `json:"order_ref,omitempty"`
	GatewayTxnID     *string `json:"gateway_txn_id,omitempty"`
	GatewayReference *string `json:"gateway_reference,omitempty"`
	ShippingStatus   *string `json:"shipping_status,omitempty"`
	Carrier          *string `json:"carrier,omitempty"`
	TrackingNumber   *string `json:"tracking_number,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []SaleItem `json:"items,omitempty"`
}

// SaleItem is one priced line. UnitPrice is a snapshot of the product's sale
// price at the moment the line was priced, not a live reference.
type SaleItem struct {
	ID        int64 `json:"id"`
	SaleID    int64 `json:"sale_id"`
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
	Discount  int64 `json:"discount"`
	Subtotal  int64 `json:"subtotal"`
}

var (
	// ErrNotFound indicates an unknown sale.
	ErrNotFound = errors.New("sales: sale not found")
	// ErrVariantNotFound indicates a line referenced an unknown variant.
	ErrVariantNotFound = errors.New("sales: variant not found")
	// ErrInvalidInput covers empty line lists, missing required fields,
	// inactive variants and discounts outside [0, gross].
	ErrInvalidInput = errors.New("sales: invalid input")
	// ErrForbidden indicates the actor lacks location scope for the sale.
	ErrForbidden = errors.New("sales: forbidden")
	// ErrAlreadyCancelled guards compensations from running twice.
	ErrAlreadyCancelled = errors.New("sales: sale already cancelled")
)
