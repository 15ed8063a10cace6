package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Store is the persistence surface the service needs.
type Store interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, c Customer) (int64, error)
	UpdateContact(ctx context.Context, id int64, name, phone, address, city string) error
	List(ctx context.Context, search string, limit, offset int) ([]Customer, int, error)
}

// Service wraps the directory with the find-or-create contract the checkout
// adapter depends on.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs Service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ContactInput carries the contact fields supplied at checkout.
type ContactInput struct {
	Name     string `json:"name" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=30"`
	Document string `json:"document" validate:"max=30"`
	Address  string `json:"address" validate:"max=300"`
	City     string `json:"city" validate:"max=100"`
}

// FindOrCreateByEmail resolves a customer by email, creating the record on
// first contact and refreshing contact fields on a match. Idempotent on
// email: a lost race against a concurrent create falls back to the winner's
// row.
func (s *Service) FindOrCreateByEmail(ctx context.Context, in ContactInput) (*Customer, error) {
	email := normalizeEmail(in.Email)

	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.store.UpdateContact(ctx, existing.ID, in.Name, in.Phone, in.Address, in.City); err != nil {
			return nil, fmt.Errorf("refresh customer %d: %w", existing.ID, err)
		}
		return s.store.Get(ctx, existing.ID)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	id, err := s.store.Create(ctx, Customer{
		Name:     in.Name,
		Email:    &email,
		Phone:    in.Phone,
		Document: in.Document,
		Address:  in.Address,
		City:     in.City,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		// concurrent checkout created it first
		return s.store.FindByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.logger.Info("customer created", slog.Int64("customer_id", id), slog.String("email", email))
	return s.store.Get(ctx, id)
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.store.Get(ctx, id)
}

// List returns a customer page.
func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]Customer, int, error) {
	return s.store.List(ctx, search, limit, offset)
}
