package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// ProductStore is the persistence surface the service needs.
type ProductStore interface {
	Get(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	List(ctx context.Context, req ListProductsRequest) ([]Product, int, error)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the product lifecycle. Variant stock is out of its reach; the
// inventory package handles that.
type Service struct {
	store  ProductStore
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService constructs Service.
func NewService(store ProductStore, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{store: store, audit: audit, logger: logger}
}

// ErrLocationDenied indicates the actor cannot operate on the location.
var ErrLocationDenied = fmt.Errorf("catalog: location access denied")

// Create registers a product. The slug is derived from the name; collisions
// surface as ErrDuplicateSlug rather than being silently suffixed.
func (s *Service) Create(ctx context.Context, actor shared.Actor, req CreateProductRequest) (*Product, error) {
	if !actor.HasRole(shared.RoleAdmin, shared.RoleSuperAdmin) {
		return nil, fmt.Errorf("catalog: role %s cannot create products: %w", actor.Role, ErrLocationDenied)
	}
	if !actor.CanAccessLocation(req.LocationID) {
		return nil, fmt.Errorf("location %d: %w", req.LocationID, ErrLocationDenied)
	}

	p := Product{
		Name:          req.Name,
		Slug:          Slugify(req.Name),
		Description:   req.Description,
		PurchasePrice: req.PurchasePrice,
		OldPrice:      req.OldPrice,
		SalePrice:     req.SalePrice,
		Status:        ProductStatusActive,
		Barcode:       req.Barcode,
		LocationID:    req.LocationID,
		CategoryID:    req.CategoryID,
		BrandID:       req.BrandID,
		ProviderID:    req.ProviderID,
	}

	id, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	created, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload product %d: %w", id, err)
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "product.create",
		Entity:   "product",
		EntityID: fmt.Sprint(created.ID),
		Meta:     map[string]any{"name": created.Name, "slug": created.Slug},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	s.logger.Info("product created",
		slog.Int64("product_id", created.ID),
		slog.String("slug", created.Slug))
	return created, nil
}

// Update applies an explicit patch. A name change recomputes the slug.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, req UpdateProductRequest) (*Product, error) {
	if !actor.HasRole(shared.RoleAdmin, shared.RoleSuperAdmin) {
		return nil, fmt.Errorf("catalog: role %s cannot update products: %w", actor.Role, ErrLocationDenied)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessLocation(current.LocationID) {
		return nil, fmt.Errorf("location %d: %w", current.LocationID, ErrLocationDenied)
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = Slugify(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PurchasePrice != nil {
		updates["purchase_price"] = *req.PurchasePrice
	}
	if req.OldPrice != nil {
		updates["old_price"] = *req.OldPrice
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Barcode != nil {
		updates["barcode"] = *req.Barcode
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.BrandID != nil {
		updates["brand_id"] = *req.BrandID
	}
	if req.ProviderID != nil {
		updates["provider_id"] = *req.ProviderID
	}

	if err := s.store.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}

	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload product %d: %w", id, err)
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "product.update",
		Entity:   "product",
		EntityID: fmt.Sprint(updated.ID),
		Meta:     map[string]any{"name": updated.Name},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	return updated, nil
}

// Delete soft-deletes a product. Its variants keep their rows so historical
// sale lines still resolve.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id int64) error {
	if !actor.HasRole(shared.RoleAdmin, shared.RoleSuperAdmin) {
		return fmt.Errorf("catalog: role %s cannot delete products: %w", actor.Role, ErrLocationDenied)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccessLocation(current.LocationID) {
		return fmt.Errorf("location %d: %w", current.LocationID, ErrLocationDenied)
	}

	if err := s.store.Update(ctx, id, map[string]any{"status": ProductStatusDeleted}); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "product.delete",
		Entity:   "product",
		EntityID: fmt.Sprint(current.ID),
		Meta:     map[string]any{"name": current.Name},
	}); err != nil {
		s.logger.Warn("audit write failed", "error", err)
	}
	s.logger.Info("product soft-deleted", slog.Int64("product_id", id))
	return nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.store.Get(ctx, id)
}

// List returns a filtered product page. Actors restricted to locations only
// see products from locations they can access.
func (s *Service) List(ctx context.Context, actor shared.Actor, req ListProductsRequest) ([]Product, int, error) {
	if req.LocationID != nil && !actor.CanAccessLocation(*req.LocationID) {
		return nil, 0, fmt.Errorf("location %d: %w", *req.LocationID, ErrLocationDenied)
	}
	return s.store.List(ctx, req)
}
