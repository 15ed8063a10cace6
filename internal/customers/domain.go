// Package customers is the customer directory: a thin find/create surface
// consumed by the storefront checkout and the sales handlers.
package customers

import (
	"errors"
	"time"
)

// Customer is a directory entry. Email is the storefront's idempotency key;
// walk-in POS customers may not have one.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Document  string    `json:"document,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates an unknown customer.
	ErrNotFound = errors.New("customers: not found")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("customers: email already exists")
)
