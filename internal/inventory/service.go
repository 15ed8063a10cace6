package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetVariant(ctx context.Context, id int64) (*Variant, error)
	ListByProduct(ctx context.Context, productID int64) ([]Variant, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates variant reconciliation and administrative stock moves.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// SyncVariants reconstructs a product's variant set from the caller-supplied
// desired list, in one transaction:
//
//   - active variants absent from the list are deactivated; their stock is
//     preserved for audit (deactivation is reversible, a zeroed count is not)
//   - entries carrying an id update color (regenerating the SKU when it
//     changed), reactivate the variant, and direct-set stock only when the
//     caller supplied it
//   - entries without an id become new variants with the next per-product
//     sequence
//
// It is a structural sync, not a sales operation: no ledger increments or
// decrements happen here, but it runs transactionally so it cannot
// interleave with an in-flight sale on the same rows.
func (s *Service) SyncVariants(ctx context.Context, actor shared.Actor, productID int64, inputs []VariantSyncInput) ([]Variant, error) {
	if !actor.HasRole(shared.RoleAdmin, shared.RoleSuperAdmin) {
		return nil, fmt.Errorf("role %s cannot sync variants: %w", actor.Role, ErrForbidden)
	}

	var result []Variant
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		productName, err := tx.GetProductName(ctx, productID)
		if err != nil {
			return err
		}

		existing, err := tx.ListVariants(ctx, productID)
		if err != nil {
			return err
		}
		byID := make(map[int64]Variant, len(existing))
		for _, v := range existing {
			byID[v.ID] = v
		}

		kept := make(map[int64]bool, len(inputs))
		for _, in := range inputs {
			if in.ID != nil {
				kept[*in.ID] = true
			}
		}

		for _, v := range existing {
			if v.IsActive && !kept[v.ID] {
				if err := tx.Deactivate(ctx, v.ID); err != nil {
					return err
				}
			}
		}

		for _, in := range inputs {
			if in.ID != nil {
				current, ok := byID[*in.ID]
				if !ok || current.ProductID != productID {
					return fmt.Errorf("variant %d: %w", *in.ID, ErrVariantNotFound)
				}
				sku := current.SKU
				if in.Color != current.Color {
					sku = GenerateSKU(productName, current.Sequence, in.Color)
				}
				if err := tx.UpdateVariant(ctx, current.ID, in.Color, sku, true); err != nil {
					return err
				}
				if in.Stock != nil {
					if err := tx.SetStock(ctx, current.ID, *in.Stock); err != nil {
						return err
					}
				}
				continue
			}

			stock := 0
			if in.Stock != nil {
				stock = *in.Stock
			}
			if err := s.insertVariant(ctx, tx, productID, productName, in.Color, stock); err != nil {
				return err
			}
		}

		result, err = tx.ListVariants(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "variant.sync",
		Entity:   "product",
		EntityID: fmt.Sprint(productID),
		Meta:     map[string]any{"desired": len(inputs), "resulting": len(result)},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return result, nil
}

// AddVariants appends new variants without touching existing ones.
func (s *Service) AddVariants(ctx context.Context, actor shared.Actor, productID int64, inputs []VariantAddInput) ([]Variant, error) {
	if !actor.HasRole(shared.RoleAdmin, shared.RoleSuperAdmin) {
		return nil, fmt.Errorf("role %s cannot add variants: %w", actor.Role, ErrForbidden)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("inventory: no variants supplied: %w", ErrInvalidQuantity)
	}

	var result []Variant
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		productName, err := tx.GetProductName(ctx, productID)
		if err != nil {
			return err
		}
		for _, in := range inputs {
			if err := s.insertVariant(ctx, tx, productID, productName, in.Color, in.Stock); err != nil {
				return err
			}
		}
		result, err = tx.ListVariants(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "variant.add",
		Entity:   "product",
		EntityID: fmt.Sprint(productID),
		Meta:     map[string]any{"added": len(inputs)},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return result, nil
}

// AdjustStock applies an administrative delta through the ledger primitives,
// so a negative correction can never underflow the stock column.
func (s *Service) AdjustStock(ctx context.Context, actor shared.Actor, variantID int64, delta int) (*Variant, error) {
	if !actor.HasRole(shared.RoleAdmin, shared.RoleSuperAdmin) {
		return nil, fmt.Errorf("role %s cannot adjust stock: %w", actor.Role, ErrForbidden)
	}
	if delta == 0 {
		return nil, fmt.Errorf("inventory: zero delta: %w", ErrInvalidQuantity)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if delta > 0 {
			return tx.Ledger().Increment(ctx, variantID, delta)
		}
		return tx.Ledger().Decrement(ctx, variantID, -delta)
	})
	if err != nil {
		return nil, err
	}

	variant, err := s.repo.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "variant.adjust_stock",
		Entity:   "variant",
		EntityID: fmt.Sprint(variantID),
		Meta:     map[string]any{"delta": delta, "stock": variant.Stock},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return variant, nil
}

// ListVariants returns a product's variants, active first.
func (s *Service) ListVariants(ctx context.Context, productID int64) ([]Variant, error) {
	return s.repo.ListByProduct(ctx, productID)
}

// GetVariant returns one variant.
func (s *Service) GetVariant(ctx context.Context, id int64) (*Variant, error) {
	return s.repo.GetVariant(ctx, id)
}

func (s *Service) insertVariant(ctx context.Context, tx TxRepository, productID int64, productName, color string, stock int) error {
	seq, err := tx.NextSequence(ctx, productID)
	if err != nil {
		return err
	}
	_, err = tx.InsertVariant(ctx, Variant{
		ProductID: productID,
		Color:     color,
		Stock:     stock,
		SKU:       GenerateSKU(productName, seq, color),
		Sequence:  seq,
		IsActive:  true,
	})
	return err
}
