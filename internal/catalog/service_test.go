package catalog

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

type mockProductStore struct {
	products map[int64]*Product
	nextID   int64

	createError error
	updateError error
}

func newMockProductStore() *mockProductStore {
	return &mockProductStore{products: make(map[int64]*Product), nextID: 1}
}

func (m *mockProductStore) Get(ctx context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductStore) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockProductStore) Create(ctx context.Context, p Product) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return 0, ErrDuplicateSlug
		}
	}
	p.ID = m.nextID
	m.nextID++
	m.products[p.ID] = &p
	return p.ID, nil
}

func (m *mockProductStore) Update(ctx context.Context, id int64, updates map[string]any) error {
	if m.updateError != nil {
		return m.updateError
	}
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := updates["slug"]; ok {
		p.Slug = v.(string)
	}
	if v, ok := updates["sale_price"]; ok {
		p.SalePrice = v.(int64)
	}
	if v, ok := updates["status"]; ok {
		p.Status = v.(ProductStatus)
	}
	return nil
}

func (m *mockProductStore) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	var out []Product
	for _, p := range m.products {
		if p.Status == ProductStatusDeleted {
			continue
		}
		if req.LocationID != nil && p.LocationID != *req.LocationID {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, log shared.AuditLog) error { return nil }

func newTestService(store *mockProductStore) *Service {
	return NewService(store, noopAudit{}, slog.Default())
}

func adminActor() shared.Actor {
	return shared.Actor{ID: 1, Name: "admin", Role: shared.RoleAdmin}
}

func TestCreateProductDerivesSlug(t *testing.T) {
	store := newMockProductStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), adminActor(), CreateProductRequest{
		Name:       "Lámpara de Noche LED",
		SalePrice:  4500,
		LocationID: 3,
		CategoryID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "lampara-de-noche-led", p.Slug)
	assert.Equal(t, ProductStatusActive, p.Status)
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	store := newMockProductStore()
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), adminActor(), CreateProductRequest{
		Name: "Silla Gamer", SalePrice: 100, LocationID: 3, CategoryID: 1,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), adminActor(), CreateProductRequest{
		Name: "Silla Gamer", SalePrice: 200, LocationID: 3, CategoryID: 1,
	})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestCreateProductRoleGate(t *testing.T) {
	svc := newTestService(newMockProductStore())

	seller := shared.Actor{ID: 2, Role: shared.RoleSeller}
	_, err := svc.Create(context.Background(), seller, CreateProductRequest{
		Name: "X", SalePrice: 100, LocationID: 3, CategoryID: 1,
	})
	assert.ErrorIs(t, err, ErrLocationDenied)
}

func TestCreateProductLocationGate(t *testing.T) {
	svc := newTestService(newMockProductStore())

	admin := shared.Actor{ID: 1, Role: shared.RoleAdmin, LocationIDs: []int64{5}}
	_, err := svc.Create(context.Background(), admin, CreateProductRequest{
		Name: "X", SalePrice: 100, LocationID: 3, CategoryID: 1,
	})
	assert.ErrorIs(t, err, ErrLocationDenied)
}

func TestUpdateProductPatchSemantics(t *testing.T) {
	store := newMockProductStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), adminActor(), CreateProductRequest{
		Name: "Mesa Plegable", SalePrice: 900, LocationID: 3, CategoryID: 1,
	})
	require.NoError(t, err)

	newPrice := int64(1200)
	updated, err := svc.Update(context.Background(), adminActor(), created.ID, UpdateProductRequest{
		SalePrice: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.SalePrice)
	// untouched fields survive the patch
	assert.Equal(t, "Mesa Plegable", updated.Name)
	assert.Equal(t, "mesa-plegable", updated.Slug)
}

func TestUpdateProductNameRecomputesSlug(t *testing.T) {
	store := newMockProductStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), adminActor(), CreateProductRequest{
		Name: "Mesa Plegable", SalePrice: 900, LocationID: 3, CategoryID: 1,
	})
	require.NoError(t, err)

	name := "Mesa Extensible"
	updated, err := svc.Update(context.Background(), adminActor(), created.ID, UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "mesa-extensible", updated.Slug)
}

func TestDeleteProductIsSoft(t *testing.T) {
	store := newMockProductStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), adminActor(), CreateProductRequest{
		Name: "Banco Alto", SalePrice: 300, LocationID: 3, CategoryID: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), adminActor(), created.ID))

	// the row survives for historical sale lines
	p, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusDeleted, p.Status)

	// but listings no longer include it
	list, total, err := svc.List(context.Background(), adminActor(), ListProductsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Lámpara LED  Ñandú": "lampara-led-nandu",
		"  --Hello World--":  "hello-world",
		"ÁÉÍÓÚ üö":           "aeiou-uo",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}
