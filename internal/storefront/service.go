package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atlas-retail/atlas-retail/internal/customers"
	"github.com/atlas-retail/atlas-retail/internal/sales"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

const idempotencyModule = "storefront.checkout"

// SalesPort is the slice of the sale engine the adapter uses.
type SalesPort interface {
	Create(ctx context.Context, actor shared.Actor, req sales.CreateSaleRequest) (*sales.Sale, error)
	GetByOrderRef(ctx context.Context, orderRef string) (*sales.Sale, error)
	CancelByOrderRef(ctx context.Context, actor shared.Actor, orderRef string) (*sales.Sale, error)
	UpdateGatewayPayment(ctx context.Context, actor shared.Actor, orderRef string, status sales.PaymentStatus, gatewayTxnID *string) (*sales.Sale, error)
	UpdateShipping(ctx context.Context, actor shared.Actor, orderRef string, shippingStatus string, carrier, trackingNumber *string) (*sales.Sale, error)
}

// CustomerPort resolves checkout customers.
type CustomerPort interface {
	FindOrCreateByEmail(ctx context.Context, in customers.ContactInput) (*customers.Customer, error)
}

// IdempotencyPort guards replayed checkouts.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Config pins the storefront's fixed operating parameters.
type Config struct {
	LocationID int64
	OperatorID int64
}

// Service is the order intake adapter.
type Service struct {
	sales       SalesPort
	customers   CustomerPort
	idempotency IdempotencyPort
	cfg         Config
	logger      *slog.Logger
}

// NewService builds Service. idempotency may be nil; checkouts without a
// gateway reference are never deduplicated anyway.
func NewService(salesSvc SalesPort, customerSvc CustomerPort, idem IdempotencyPort, cfg Config, logger *slog.Logger) *Service {
	return &Service{sales: salesSvc, customers: customerSvc, idempotency: idem, cfg: cfg, logger: logger}
}

// systemActor is the fixed identity storefront orders run under. Empty
// location set: the adapter itself pins the location.
func (s *Service) systemActor() shared.Actor {
	return shared.Actor{ID: s.cfg.OperatorID, Name: "storefront", Role: shared.RoleSystem}
}

// Checkout places a storefront order: dedupe on the gateway reference,
// resolve the customer by email, then run the exact sale create path with
// channel ECOMMERCE and a fresh public order reference.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*sales.Sale, error) {
	if req.GatewayReference != nil && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, *req.GatewayReference, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, fmt.Errorf("reference %s: %w", *req.GatewayReference, ErrDuplicateCheckout)
			}
			return nil, err
		}
	}

	customer, err := s.customers.FindOrCreateByEmail(ctx, req.Customer)
	if err != nil {
		s.releaseKey(ctx, req.GatewayReference)
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	orderRef := uuid.NewString()
	paymentStatus := sales.PaymentStatusPending
	if req.GatewayTxnID != nil {
		paymentStatus = sales.PaymentStatusPaid
	}

	sale, err := s.sales.Create(ctx, s.systemActor(), sales.CreateSaleRequest{
		Lines:            req.Lines,
		CustomerID:       customer.ID,
		LocationID:       s.cfg.LocationID,
		PaymentMethod:    sales.PaymentOnline,
		PaymentStatus:    paymentStatus,
		SaleStatus:       sales.SaleStatusNew,
		Notes:            req.Notes,
		Channel:          sales.ChannelEcommerce,
		OrderRef:         &orderRef,
		GatewayTxnID:     req.GatewayTxnID,
		GatewayReference: req.GatewayReference,
	})
	if err != nil {
		// the key must not poison a retry after a failed checkout
		s.releaseKey(ctx, req.GatewayReference)
		return nil, err
	}

	s.logger.Info("storefront order placed",
		slog.String("order_ref", orderRef),
		slog.Int64("sale_id", sale.ID),
		slog.Int64("customer_id", customer.ID))
	return sale, nil
}

// GetOrder returns a storefront order by its public reference.
func (s *Service) GetOrder(ctx context.Context, orderRef string) (*sales.Sale, error) {
	sale, err := s.sales.GetByOrderRef(ctx, orderRef)
	if errors.Is(err, sales.ErrNotFound) {
		return nil, fmt.Errorf("order %s: %w", orderRef, ErrOrderNotFound)
	}
	return sale, err
}

// CancelOrder restores stock and marks the order cancelled.
func (s *Service) CancelOrder(ctx context.Context, actor shared.Actor, orderRef string) (*sales.Sale, error) {
	return s.sales.CancelByOrderRef(ctx, actor, orderRef)
}

// UpdatePaymentStatus applies a gateway callback. Stock neutral.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor shared.Actor, orderRef string, req PaymentStatusRequest) (*sales.Sale, error) {
	return s.sales.UpdateGatewayPayment(ctx, actor, orderRef, req.Status, req.GatewayTxnID)
}

// UpdateShippingStatus tracks fulfilment. Stock neutral.
func (s *Service) UpdateShippingStatus(ctx context.Context, actor shared.Actor, orderRef string, req ShippingStatusRequest) (*sales.Sale, error) {
	return s.sales.UpdateShipping(ctx, actor, orderRef, req.Status, req.Carrier, req.TrackingNumber)
}

func (s *Service) releaseKey(ctx context.Context, ref *string) {
	if ref == nil || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Delete(ctx, *ref); err != nil {
		s.logger.Warn("idempotency key release failed", "error", err, slog.String("reference", *ref))
	}
}
