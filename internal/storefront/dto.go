package storefront

import (
	"github.com/atlas-retail/atlas-retail/internal/customers"
	"github.com/atlas-retail/atlas-retail/internal/sales"
)

// CheckoutRequest is the storefront's order payload. Prices never appear
// here; lines are priced server-side from the catalog.
type CheckoutRequest struct {
	Customer customers.ContactInput `json:"customer" validate:"required"`
	Lines    []sales.LineInput      `json:"lines" validate:"required,min=1,dive"`
	Notes    *string                `json:"notes,omitempty" validate:"omitempty,max=2000"`

	// gateway fields: a present txn id marks the order as already paid;
	// the reference doubles as the idempotency key for duplicate submits
	GatewayTxnID     *string `json:"gateway_txn_id,omitempty" validate:"omitempty,max=120"`
	GatewayReference *string `json:"gateway_reference,omitempty" validate:"omitempty,max=120"`
}

// PaymentStatusRequest patches an order's payment state after a gateway
// callback.
type PaymentStatusRequest struct {
	Status       sales.PaymentStatus `json:"status" validate:"required,oneof=PAID PENDING REFUNDED CANCELLED"`
	GatewayTxnID *string             `json:"gateway_txn_id,omitempty" validate:"omitempty,max=120"`
}

// ShippingStatusRequest patches an order's shipping state.
type ShippingStatusRequest struct {
	Status         string  `json:"status" validate:"required,oneof=PREPARING SHIPPED DELIVERED RETURNED"`
	Carrier        *string `json:"carrier,omitempty" validate:"omitempty,max=80"`
	TrackingNumber *string `json:"tracking_number,omitempty" validate:"omitempty,max=80"`
}

// VariantAvailability is one row of the public stock snapshot.
type VariantAvailability struct {
	VariantID int64  `json:"variant_id"`
	Color     string `json:"color"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
	InStock   bool   `json:"in_stock"`
}
