package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the execution surface the ledger needs; both pgx.Tx and
// *pgxpool.Pool satisfy it. Mutations must be handed a transaction so the
// stock change commits or rolls back with the sale/variant rows it
// accompanies.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Ledger owns the only two stock mutation primitives in the system. Every
// writer (sale create/edit/delete, order cancel, admin restock) goes through
// it; the reconciler's documented direct-set is the single exception and
// lives behind the same repository.
type Ledger struct {
	db DBTX
}

// NewLedger binds the ledger to a transaction or pool.
func NewLedger(db DBTX) *Ledger {
	return &Ledger{db: db}
}

// Decrement atomically subtracts qty from a variant's stock. The WHERE
// clause is the sole concurrency mechanism: if the variant is gone, inactive,
// or a concurrent sale consumed the stock first, zero rows match and
// ErrStockInsufficient is returned. Never replace this with a read-then-write.
func (l *Ledger) Decrement(ctx context.Context, variantID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	tag, err := l.db.Exec(ctx,
		`UPDATE product_variants SET stock = stock - $2, updated_at = NOW()
		 WHERE id = $1 AND is_active AND stock >= $2`,
		variantID, qty)
	if err != nil {
		return fmt.Errorf("decrement variant %d: %w", variantID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("variant %d: %w", variantID, ErrStockInsufficient)
	}
	return nil
}

// Increment unconditionally adds qty back to a variant's stock. Compensation
// only: sale edit, sale deletion, order cancellation. Administrative
// restocking goes through the reconciler instead.
func (l *Ledger) Increment(ctx context.Context, variantID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	tag, err := l.db.Exec(ctx,
		`UPDATE product_variants SET stock = stock + $2, updated_at = NOW() WHERE id = $1`,
		variantID, qty)
	if err != nil {
		return fmt.Errorf("increment variant %d: %w", variantID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("variant %d: %w", variantID, ErrVariantNotFound)
	}
	return nil
}
