package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-retail/atlas-retail/internal/inventory"
)

const saleColumns = `id, code, total_amount, payment_method, payment_status, sale_status,
	sale_date, notes, customer_id, location_id, operator_id, channel,
	order_ref, gateway_txn_id, gateway_reference, shipping_status, carrier, tracking_number,
	created_at, updated_at`

// LineVariant is the joined variant+product row the engine prices a line
// from. SalePrice is the authoritative current price.
type LineVariant struct {
	VariantID     int64
	Color         string
	SKU           string
	VariantActive bool
	ProductID     int64
	ProductName   string
	ProductActive bool
	SalePrice     int64
}

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations the engine needs. The
// inventory ledger is bound to the same transaction, so a decrement never
// commits without its sale row and vice versa.
type TxRepository interface {
	Ledger() *inventory.Ledger
	GetLineVariant(ctx context.Context, variantID int64) (*LineVariant, error)
	GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error)
	GetSaleByOrderRefForUpdate(ctx context.Context, orderRef string) (*Sale, error)
	GetItems(ctx context.Context, saleID int64) ([]SaleItem, error)
	InsertSale(ctx context.Context, s Sale) (int64, error)
	InsertItems(ctx context.Context, saleID int64, items []SaleItem) error
	DeleteItems(ctx context.Context, saleID int64) error
	UpdateSale(ctx context.Context, id int64, updates map[string]any) error
	DeleteSale(ctx context.Context, id int64) error
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

// Get returns a sale with its items.
func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		return nil, err
	}
	sale.Items, err = getItems(ctx, r.pool, id)
	return sale, err
}

// GetByCode returns a sale by its human-readable code, items included.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE code = $1`, code)
	sale, err := scanSale(row)
	if err != nil {
		return nil, err
	}
	sale.Items, err = getItems(ctx, r.pool, sale.ID)
	return sale, err
}

// GetByOrderRef returns a storefront sale by its public order reference.
func (r *Repository) GetByOrderRef(ctx context.Context, orderRef string) (*Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE order_ref = $1`, orderRef)
	sale, err := scanSale(row)
	if err != nil {
		return nil, err
	}
	sale.Items, err = getItems(ctx, r.pool, sale.ID)
	return sale, err
}

// List returns a filtered sale page (items not loaded) plus the total.
func (r *Repository) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	where := "WHERE TRUE"
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.LocationID != nil {
		where += " AND location_id = " + arg(*req.LocationID)
	}
	if req.CustomerID != nil {
		where += " AND customer_id = " + arg(*req.CustomerID)
	}
	if req.Status != nil {
		where += " AND sale_status = " + arg(*req.Status)
	}
	if req.Channel != nil {
		where += " AND channel = " + arg(*req.Channel)
	}
	if req.From != nil {
		where += " AND sale_date >= " + arg(*req.From)
	}
	if req.To != nil {
		where += " AND sale_date < " + arg(*req.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM sales %s ORDER BY sale_date DESC, id DESC LIMIT %s OFFSET %s",
		saleColumns, where, arg(limit), arg(req.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, *s)
	}
	return sales, total, rows.Err()
}

func (t *txRepo) Ledger() *inventory.Ledger {
	return inventory.NewLedger(t.tx)
}

func (t *txRepo) GetLineVariant(ctx context.Context, variantID int64) (*LineVariant, error) {
	var lv LineVariant
	err := t.tx.QueryRow(ctx, `
		SELECT v.id, v.color, v.sku, v.is_active,
		       p.id, p.name, p.status = 'ACTIVE', p.sale_price
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1`, variantID).
		Scan(&lv.VariantID, &lv.Color, &lv.SKU, &lv.VariantActive,
			&lv.ProductID, &lv.ProductName, &lv.ProductActive, &lv.SalePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("variant %d: %w", variantID, ErrVariantNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &lv, nil
}

// GetSaleForUpdate locks the sale row so concurrent edits of the same sale
// serialize instead of double-restoring stock.
func (t *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
	return scanSale(row)
}

func (t *txRepo) GetSaleByOrderRefForUpdate(ctx context.Context, orderRef string) (*Sale, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE order_ref = $1 FOR UPDATE`, orderRef)
	return scanSale(row)
}

func (t *txRepo) GetItems(ctx context.Context, saleID int64) ([]SaleItem, error) {
	return getItems(ctx, t.tx, saleID)
}

func (t *txRepo) InsertSale(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO sales (code, total_amount, payment_method, payment_status, sale_status,
			sale_date, notes, customer_id, location_id, operator_id, channel,
			order_ref, gateway_txn_id, gateway_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		s.Code, s.TotalAmount, s.PaymentMethod, s.PaymentStatus, s.SaleStatus,
		s.SaleDate, s.Notes, s.CustomerID, s.LocationID, s.OperatorID, s.Channel,
		s.OrderRef, s.GatewayTxnID, s.GatewayReference).Scan(&id)
	return id, err
}

func (t *txRepo) InsertItems(ctx context.Context, saleID int64, items []SaleItem) error {
	for _, item := range items {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, variant_id, quantity, unit_price, discount, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			saleID, item.VariantID, item.Quantity, item.UnitPrice, item.Discount, item.Subtotal)
		if err != nil {
			return fmt.Errorf("insert sale item (variant %d): %w", item.VariantID, err)
		}
	}
	return nil
}

func (t *txRepo) DeleteItems(ctx context.Context, saleID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID)
	return err
}

func (t *txRepo) UpdateSale(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE sales SET updated_at = NOW()"
	args := []any{}
	for _, col := range []string{"total_amount", "payment_method", "payment_status", "sale_status",
		"sale_date", "notes", "customer_id", "shipping_status", "carrier", "tracking_number",
		"gateway_txn_id"} {
		if v, ok := updates[col]; ok {
			args = append(args, v)
			query += fmt.Sprintf(", %s = $%d", col, len(args))
		}
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSale removes the sale row; sale_items cascade.
func (t *txRepo) DeleteSale(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getItems(ctx context.Context, q querier, saleID int64) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, sale_id, variant_id, quantity, unit_price, discount, subtotal
		FROM sale_items WHERE sale_id = $1 ORDER BY id ASC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.VariantID, &item.Quantity,
			&item.UnitPrice, &item.Discount, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.Code, &s.TotalAmount, &s.PaymentMethod, &s.PaymentStatus, &s.SaleStatus,
		&s.SaleDate, &s.Notes, &s.CustomerID, &s.LocationID, &s.OperatorID, &s.Channel,
		&s.OrderRef, &s.GatewayTxnID, &s.GatewayReference, &s.ShippingStatus, &s.Carrier, &s.TrackingNumber,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
