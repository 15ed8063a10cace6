package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, name, slug, description, purchase_price, old_price, sale_price,
	status, barcode, location_id, category_id, brand_id, provider_id, created_at, updated_at`

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns a product by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetBySlug returns a product by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	return scanProduct(row)
}

// Create inserts a product and returns its id.
func (r *Repository) Create(ctx context.Context, p Product) (int64, error) {
	const query = `
		INSERT INTO products (name, slug, description, purchase_price, old_price, sale_price,
			status, barcode, location_id, category_id, brand_id, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		p.Name, p.Slug, p.Description, p.PurchasePrice, p.OldPrice, p.SalePrice,
		p.Status, p.Barcode, p.LocationID, p.CategoryID, p.BrandID, p.ProviderID,
	).Scan(&id)
	if err != nil {
		return 0, mapUniqueViolation(err)
	}
	return id, nil
}

// Update applies the given column updates to a product.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE products SET updated_at = NOW()"
	args := []any{}
	argPos := 1

	for _, col := range []string{"name", "slug", "description", "purchase_price", "old_price", "sale_price", "status", "barcode", "category_id", "brand_id", "provider_id"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns products matching the filter plus the unpaged total.
func (r *Repository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	conditions := []string{"status <> 'DELETED'"}
	args := []any{}
	argPos := 1

	if req.LocationID != nil {
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", argPos))
		args = append(args, *req.LocationID)
		argPos++
	}
	if req.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argPos))
		args = append(args, *req.CategoryID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", argPos))
		args = append(args, req.Search)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY name ASC LIMIT $%d OFFSET $%d",
		productColumns, whereClause, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.PurchasePrice, &p.OldPrice, &p.SalePrice,
		&p.Status, &p.Barcode, &p.LocationID, &p.CategoryID, &p.BrandID, &p.ProviderID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "products_slug_key":
			return ErrDuplicateSlug
		case "products_barcode_key":
			return ErrDuplicateBarcode
		}
	}
	return err
}
