package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atlas-retail/atlas-retail/internal/inventory"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// VariantSource lists variants running low.
type VariantSource interface {
	ListBelowThreshold(ctx context.Context, threshold int) ([]inventory.Variant, error)
}

// AuditPort records scan outcomes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// LowStockScanner is the hourly restock radar: it flags active variants
// under the configured threshold so purchasing can act before checkout
// starts failing with insufficient stock.
type LowStockScanner struct {
	variants  VariantSource
	audit     AuditPort
	threshold int
	logger    *slog.Logger
}

// NewLowStockScanner constructs LowStockScanner.
func NewLowStockScanner(variants VariantSource, audit AuditPort, threshold int, logger *slog.Logger) *LowStockScanner {
	if threshold <= 0 {
		threshold = 3
	}
	return &LowStockScanner{variants: variants, audit: audit, threshold: threshold, logger: logger}
}

// Handle processes TaskLowStockScan tasks.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	low, err := s.variants.ListBelowThreshold(ctx, s.threshold)
	if err != nil {
		return err
	}
	if len(low) == 0 {
		return nil
	}

	for _, v := range low {
		s.logger.Warn("variant low on stock",
			slog.String("sku", v.SKU),
			slog.Int64("variant_id", v.ID),
			slog.Int("stock", v.Stock))
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  0,
		Action:   "stock.low_scan",
		Entity:   "inventory",
		EntityID: fmt.Sprintf("threshold:%d", s.threshold),
		Meta:     map[string]any{"flagged": len(low)},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return nil
}
