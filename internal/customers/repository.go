package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id, name, email, phone, document, address, city, created_at, updated_at`

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns a customer by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

// FindByEmail returns the customer with the given email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE LOWER(email) = LOWER($1)`, email)
	return scanCustomer(row)
}

// Create inserts a customer.
func (r *Repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone, document, address, city)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.Name, c.Email, c.Phone, c.Document, c.Address, c.City).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateEmail
		}
		return 0, err
	}
	return id, nil
}

// UpdateContact refreshes the mutable contact fields.
func (r *Repository) UpdateContact(ctx context.Context, id int64, name, phone, address, city string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET name = $2, phone = $3, address = $4, city = $5, updated_at = NOW()
		 WHERE id = $1`,
		id, name, phone, address, city)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of customers, newest first, optionally filtered by a
// name/email search term.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Customer, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = "WHERE name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'"
		args = append(args, search)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM customers %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		customerColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Document, &c.Address, &c.City,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// normalizeEmail is shared by service-level lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
