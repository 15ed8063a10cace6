package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const variantColumns = `id, product_id, color, stock, sku, sequence, is_active, created_at, updated_at`

// Repository persists variants in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations the reconciler needs.
// The ledger primitives are bound to the same transaction so a stock write
// never outlives a rolled-back sync.
type TxRepository interface {
	Ledger() *Ledger
	GetProductName(ctx context.Context, productID int64) (string, error)
	ListVariants(ctx context.Context, productID int64) ([]Variant, error)
	NextSequence(ctx context.Context, productID int64) (int, error)
	InsertVariant(ctx context.Context, v Variant) (int64, error)
	UpdateVariant(ctx context.Context, id int64, color, sku string, isActive bool) error
	SetStock(ctx context.Context, id int64, stock int) error
	Deactivate(ctx context.Context, id int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetVariant returns one variant by id.
func (r *Repository) GetVariant(ctx context.Context, id int64) (*Variant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id)
	return scanVariant(row)
}

// ListByProduct returns all variants of a product, active first.
func (r *Repository) ListByProduct(ctx context.Context, productID int64) ([]Variant, error) {
	return listVariants(ctx, r.pool, productID)
}

// ListBelowThreshold returns active variants whose stock is under the given
// threshold. Used by the low-stock background scan.
func (r *Repository) ListBelowThreshold(ctx context.Context, threshold int) ([]Variant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+variantColumns+` FROM product_variants
		 WHERE is_active AND stock < $1 ORDER BY stock ASC, id ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVariants(rows)
}

func (t *txRepo) Ledger() *Ledger {
	return NewLedger(t.tx)
}

// GetProductName resolves the product for SKU generation and takes a row
// lock on it. Concurrent reconciliations of the same product queue up here,
// so the MAX(sequence) scan below never races.
func (t *txRepo) GetProductName(ctx context.Context, productID int64) (string, error) {
	var name string
	err := t.tx.QueryRow(ctx,
		`SELECT name FROM products WHERE id = $1 AND status <> 'DELETED' FOR UPDATE`, productID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProductNotFound
	}
	return name, err
}

func (t *txRepo) ListVariants(ctx context.Context, productID int64) ([]Variant, error) {
	return listVariants(ctx, t.tx, productID)
}

// NextSequence computes the next per-product sequence. Callers must hold the
// product row lock (GetProductName) in the same transaction; the
// product_variants_product_sequence_key constraint is the backstop.
func (t *txRepo) NextSequence(ctx context.Context, productID int64) (int, error) {
	var next int
	err := t.tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM product_variants WHERE product_id = $1`,
		productID).Scan(&next)
	return next, err
}

func (t *txRepo) InsertVariant(ctx context.Context, v Variant) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO product_variants (product_id, color, stock, sku, sequence, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		v.ProductID, v.Color, v.Stock, v.SKU, v.Sequence, v.IsActive).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateVariant(ctx context.Context, id int64, color, sku string, isActive bool) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE product_variants SET color = $2, sku = $3, is_active = $4, updated_at = NOW() WHERE id = $1`,
		id, color, sku, isActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// SetStock is the reconciler's documented direct-set. It must not be used as
// a sales compensation path; those go through the ledger.
func (t *txRepo) SetStock(ctx context.Context, id int64, stock int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE product_variants SET stock = $2, updated_at = NOW() WHERE id = $1`, id, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVariantNotFound
	}
	return nil
}

func (t *txRepo) Deactivate(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE product_variants SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listVariants(ctx context.Context, q querier, productID int64) ([]Variant, error) {
	rows, err := q.Query(ctx,
		`SELECT `+variantColumns+` FROM product_variants
		 WHERE product_id = $1 ORDER BY is_active DESC, sequence ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVariants(rows)
}

func collectVariants(rows pgx.Rows) ([]Variant, error) {
	var variants []Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}
	return variants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVariant(row rowScanner) (*Variant, error) {
	var v Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Color, &v.Stock, &v.SKU, &v.Sequence,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}
