package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// RepositoryPort abstracts repository usage for the engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Sale, error)
	GetByCode(ctx context.Context, code string) (*Sale, error)
	GetByOrderRef(ctx context.Context, orderRef string) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ReceiptEnqueuer hands a committed sale to the background worker for
// receipt delivery. Best effort: enqueue failures never fail the sale.
type ReceiptEnqueuer interface {
	EnqueueReceiptEmail(ctx context.Context, saleID int64) error
}

// MetricsPort records sale outcomes.
type MetricsPort interface {
	SaleCommitted(channel string)
	StockInsufficient()
}

// Service is the sale transaction engine.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	jobs    ReceiptEnqueuer
	metrics MetricsPort
	logger  *slog.Logger
}

// NewService builds Service. jobs and metrics may be nil (worker-less or
// test deployments).
func NewService(repo RepositoryPort, audit AuditPort, jobs ReceiptEnqueuer, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, jobs: jobs, metrics: metrics, logger: logger}
}

// generateCode returns the sale's unique human-readable code. Timestamp
// strategy; the UNIQUE constraint on sales.code backs it up.
func generateCode(now time.Time) string {
	return fmt.Sprintf("SALE-%d", now.UnixNano())
}

// Create validates, prices and persists a sale in one transaction. Any
// failure in any line rolls back every stock decrement already applied in
// the attempt.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateSaleRequest) (*Sale, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", ErrInvalidInput)
	}
	if req.CustomerID == 0 || req.LocationID == 0 || req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: customer, location and payment method are required", ErrInvalidInput)
	}
	if !actor.CanAccessLocation(req.LocationID) {
		return nil, fmt.Errorf("location %d: %w", req.LocationID, ErrForbidden)
	}

	now := time.Now()
	sale := Sale{
		Code:             generateCode(now),
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    req.PaymentStatus,
		SaleStatus:       req.SaleStatus,
		SaleDate:         now,
		Notes:            req.Notes,
		CustomerID:       req.CustomerID,
		LocationID:       req.LocationID,
		OperatorID:       actor.ID,
		Channel:          req.Channel,
		OrderRef:         req.OrderRef,
		GatewayTxnID:     req.GatewayTxnID,
		GatewayReference: req.GatewayReference,
	}
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = PaymentStatusPaid
	}
	if sale.SaleStatus == "" {
		sale.SaleStatus = SaleStatusCompleted
	}
	if sale.Channel == "" {
		sale.Channel = ChannelPOS
	}
	if req.SaleDate != nil {
		sale.SaleDate = *req.SaleDate
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items, total, err := s.priceAndDecrement(ctx, tx, req.Lines)
		if err != nil {
			return err
		}
		sale.TotalAmount = total

		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		sale.ID = id
		sale.Items = items
		return tx.InsertItems(ctx, id, items)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, &sale, "sale.create")
	return s.repo.Get(ctx, sale.ID)
}

// Update patches a sale. Without lines it is a stock-neutral administrative
// patch. With lines it restores every existing item's stock, deletes the
// items, re-runs the pricing/decrement loop against the new lines and
// rewrites the total, all in one transaction (restore-then-reapply; never a
// diff).
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateSaleRequest) (*Sale, error) {
	if req.Lines != nil && len(*req.Lines) == 0 {
		return nil, fmt.Errorf("%w: lines must not be empty when supplied", ErrInvalidInput)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanAccessLocation(sale.LocationID) {
			return fmt.Errorf("location %d: %w", sale.LocationID, ErrForbidden)
		}

		updates := adminUpdates(req)

		if req.Lines != nil {
			// A cancelled sale already had its stock restored; its items are
			// retained for audit only. Re-running restore-then-reapply here
			// would restore the same stock twice.
			if sale.SaleStatus == SaleStatusCancelled {
				return fmt.Errorf("sale %d: %w", id, ErrAlreadyCancelled)
			}
			existing, err := tx.GetItems(ctx, id)
			if err != nil {
				return err
			}
			for _, item := range existing {
				if err := tx.Ledger().Increment(ctx, item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
			if err := tx.DeleteItems(ctx, id); err != nil {
				return err
			}

			items, total, err := s.priceAndDecrement(ctx, tx, *req.Lines)
			if err != nil {
				return err
			}
			if err := tx.InsertItems(ctx, id, items); err != nil {
				return err
			}
			updates["total_amount"] = total
		}

		return tx.UpdateSale(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "sale.update",
		Entity:   "sale",
		EntityID: fmt.Sprint(id),
		Meta:     map[string]any{"lines_replaced": req.Lines != nil},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return s.repo.Get(ctx, id)
}

// Remove restores stock for every item and deletes the sale (items cascade)
// in one transaction. Cancelled sales are deleted without the restore loop,
// since cancellation already returned their stock.
func (s *Service) Remove(ctx context.Context, actor shared.Actor, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanAccessLocation(sale.LocationID) {
			return fmt.Errorf("location %d: %w", sale.LocationID, ErrForbidden)
		}

		// Cancelled sales already had their stock restored when the items
		// were kept for audit; deleting one must not compensate again.
		if sale.SaleStatus != SaleStatusCancelled {
			items, err := tx.GetItems(ctx, id)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.Ledger().Increment(ctx, item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "sale.remove",
		Entity:   "sale",
		EntityID: fmt.Sprint(id),
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return nil
}

// CancelByOrderRef cancels a storefront order: restores stock, marks the
// sale and payment cancelled, keeps the items for audit. Guarded against
// double application.
func (s *Service) CancelByOrderRef(ctx context.Context, actor shared.Actor, orderRef string) (*Sale, error) {
	var saleID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleByOrderRefForUpdate(ctx, orderRef)
		if err != nil {
			return err
		}
		if !actor.CanAccessLocation(sale.LocationID) {
			return fmt.Errorf("location %d: %w", sale.LocationID, ErrForbidden)
		}
		if sale.SaleStatus == SaleStatusCancelled {
			return fmt.Errorf("order %s: %w", orderRef, ErrAlreadyCancelled)
		}
		saleID = sale.ID

		items, err := tx.GetItems(ctx, sale.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.Ledger().Increment(ctx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		return tx.UpdateSale(ctx, sale.ID, map[string]any{
			"sale_status":    SaleStatusCancelled,
			"payment_status": PaymentStatusCancelled,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "sale.cancel",
		Entity:   "sale",
		EntityID: fmt.Sprint(saleID),
		Meta:     map[string]any{"order_ref": orderRef},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return s.repo.Get(ctx, saleID)
}

// UpdateGatewayPayment patches a storefront order's payment state. Stock
// neutral.
func (s *Service) UpdateGatewayPayment(ctx context.Context, actor shared.Actor, orderRef string, status PaymentStatus, gatewayTxnID *string) (*Sale, error) {
	var saleID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleByOrderRefForUpdate(ctx, orderRef)
		if err != nil {
			return err
		}
		saleID = sale.ID

		updates := map[string]any{"payment_status": status}
		if gatewayTxnID != nil {
			updates["gateway_txn_id"] = *gatewayTxnID
		}
		return tx.UpdateSale(ctx, sale.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, saleID)
}

// UpdateShipping patches a storefront order's shipping state. Stock neutral.
func (s *Service) UpdateShipping(ctx context.Context, actor shared.Actor, orderRef string, shippingStatus string, carrier, trackingNumber *string) (*Sale, error) {
	var saleID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleByOrderRefForUpdate(ctx, orderRef)
		if err != nil {
			return err
		}
		saleID = sale.ID

		updates := map[string]any{"shipping_status": shippingStatus}
		if carrier != nil {
			updates["carrier"] = *carrier
		}
		if trackingNumber != nil {
			updates["tracking_number"] = *trackingNumber
		}
		return tx.UpdateSale(ctx, sale.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, saleID)
}

// Get returns a sale with items, scope-checked.
func (s *Service) Get(ctx context.Context, actor shared.Actor, id int64) (*Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessLocation(sale.LocationID) {
		return nil, fmt.Errorf("location %d: %w", sale.LocationID, ErrForbidden)
	}
	return sale, nil
}

// GetByOrderRef returns a storefront order by its public reference.
func (s *Service) GetByOrderRef(ctx context.Context, orderRef string) (*Sale, error) {
	return s.repo.GetByOrderRef(ctx, orderRef)
}

// List returns a filtered page of sales.
func (s *Service) List(ctx context.Context, actor shared.Actor, req ListSalesRequest) ([]Sale, int, error) {
	if req.LocationID != nil && !actor.CanAccessLocation(*req.LocationID) {
		return nil, 0, fmt.Errorf("location %d: %w", *req.LocationID, ErrForbidden)
	}
	return s.repo.List(ctx, req)
}

// VerifyByCode is the public receipt check: it confirms a code exists and
// returns the totals without internal identifiers.
func (s *Service) VerifyByCode(ctx context.Context, code string) (*ReceiptView, error) {
	sale, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &ReceiptView{
		Code:        sale.Code,
		TotalAmount: sale.TotalAmount,
		SaleStatus:  sale.SaleStatus,
		SaleDate:    sale.SaleDate,
		Lines:       len(sale.Items),
	}, nil
}

// priceAndDecrement runs the per-line loop shared by Create and Update:
// price from the catalog's current sale price, validate the discount range,
// decrement stock through the ledger. Must be called inside a transaction.
func (s *Service) priceAndDecrement(ctx context.Context, tx TxRepository, lines []LineInput) ([]SaleItem, int64, error) {
	items := make([]SaleItem, 0, len(lines))
	var total int64

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, 0, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}

		lv, err := tx.GetLineVariant(ctx, line.VariantID)
		if err != nil {
			return nil, 0, err
		}
		if !lv.VariantActive || !lv.ProductActive {
			return nil, 0, fmt.Errorf("%w: %s (%s) is not available for sale", ErrInvalidInput, lv.ProductName, lv.Color)
		}

		gross := int64(line.Quantity) * lv.SalePrice
		if line.Discount < 0 || line.Discount > gross {
			return nil, 0, fmt.Errorf("%w: discount %d out of range for %s (%s)", ErrInvalidInput, line.Discount, lv.ProductName, lv.Color)
		}

		if err := tx.Ledger().Decrement(ctx, line.VariantID, line.Quantity); err != nil {
			if s.metrics != nil {
				s.metrics.StockInsufficient()
			}
			return nil, 0, fmt.Errorf("%s (%s): %w", lv.ProductName, lv.Color, err)
		}

		subtotal := gross - line.Discount
		total += subtotal
		items = append(items, SaleItem{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: lv.SalePrice,
			Discount:  line.Discount,
			Subtotal:  subtotal,
		})
	}
	return items, total, nil
}

func (s *Service) afterCommit(ctx context.Context, actor shared.Actor, sale *Sale, action string) {
	if s.metrics != nil {
		s.metrics.SaleCommitted(string(sale.Channel))
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprint(sale.ID),
		Meta:     map[string]any{"code": sale.Code, "total": sale.TotalAmount, "channel": sale.Channel},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	if s.jobs != nil {
		if err := s.jobs.EnqueueReceiptEmail(ctx, sale.ID); err != nil {
			s.logger.Warn("receipt enqueue failed", "error", err, slog.Int64("sale_id", sale.ID))
		}
	}
	s.logger.Info("sale committed",
		slog.Int64("sale_id", sale.ID),
		slog.String("code", sale.Code),
		slog.Int64("total", sale.TotalAmount),
		slog.String("channel", string(sale.Channel)))
}

// adminUpdates converts the stock-neutral patch fields into column updates.
func adminUpdates(req UpdateSaleRequest) map[string]any {
	updates := map[string]any{}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	if req.PaymentStatus != nil {
		updates["payment_status"] = *req.PaymentStatus
	}
	if req.SaleStatus != nil {
		updates["sale_status"] = *req.SaleStatus
	}
	if req.SaleDate != nil {
		updates["sale_date"] = *req.SaleDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.CustomerID != nil {
		updates["customer_id"] = *req.CustomerID
	}
	return updates
}
