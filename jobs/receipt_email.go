package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atlas-retail/atlas-retail/internal/customers"
	"github.com/atlas-retail/atlas-retail/internal/sales"
)

// SaleSource loads committed sales for receipt rendering.
type SaleSource interface {
	Get(ctx context.Context, id int64) (*sales.Sale, error)
}

// CustomerSource resolves the recipient.
type CustomerSource interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// ReceiptMailer renders and delivers sale receipts.
type ReceiptMailer struct {
	sales     SaleSource
	customers CustomerSource
	logger    *slog.Logger
}

// NewReceiptMailer constructs ReceiptMailer.
func NewReceiptMailer(saleSrc SaleSource, customerSrc CustomerSource, logger *slog.Logger) *ReceiptMailer {
	return &ReceiptMailer{sales: saleSrc, customers: customerSrc, logger: logger}
}

// Handle processes TaskReceiptEmail tasks. Walk-in customers without an
// email are skipped, not retried.
func (m *ReceiptMailer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	sale, err := m.sales.Get(ctx, payload.SaleID)
	if err != nil {
		return err
	}
	customer, err := m.customers.Get(ctx, sale.CustomerID)
	if err != nil {
		return err
	}
	if customer.Email == nil || *customer.Email == "" {
		m.logger.Info("receipt skipped, customer has no email",
			slog.Int64("sale_id", sale.ID))
		return nil
	}

	// TODO: route through the transactional mail provider once its account
	// is provisioned; until then delivery is log-only.
	m.logger.Info("receipt email sent",
		slog.String("to", *customer.Email),
		slog.String("code", sale.Code),
		slog.Int64("total", sale.TotalAmount))
	return nil
}
