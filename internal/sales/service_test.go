package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-retail/atlas-retail/internal/inventory"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type stockVariant struct {
	ProductID int64
	Color     string
	SKU       string
	Stock     int
	Active    bool
}

type stockProduct struct {
	Name      string
	SalePrice int64
	Active    bool
}

// mockRepo emulates the conditional stock update and, critically, rolls the
// whole state back when the transaction callback fails — so atomicity
// properties are actually exercised.
type mockRepo struct {
	products map[int64]*stockProduct
	variants map[int64]*stockVariant
	sales    map[int64]*Sale
	items    map[int64][]SaleItem
	nextID   int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		products: make(map[int64]*stockProduct),
		variants: make(map[int64]*stockVariant),
		sales:    make(map[int64]*Sale),
		items:    make(map[int64][]SaleItem),
		nextID:   1,
	}
}

func (m *mockRepo) snapshot() *mockRepo {
	cp := newMockRepo()
	cp.nextID = m.nextID
	for id, p := range m.products {
		v := *p
		cp.products[id] = &v
	}
	for id, v := range m.variants {
		c := *v
		cp.variants[id] = &c
	}
	for id, s := range m.sales {
		c := *s
		cp.sales[id] = &c
	}
	for id, list := range m.items {
		cp.items[id] = append([]SaleItem(nil), list...)
	}
	return cp
}

func (m *mockRepo) restore(snap *mockRepo) {
	m.products, m.variants, m.sales, m.items, m.nextID =
		snap.products, snap.variants, snap.sales, snap.items, snap.nextID
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	cp.Items = append([]SaleItem(nil), m.items[id]...)
	return &cp, nil
}

func (m *mockRepo) GetByCode(ctx context.Context, code string) (*Sale, error) {
	for id, s := range m.sales {
		if s.Code == code {
			return m.Get(ctx, id)
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByOrderRef(ctx context.Context, orderRef string) (*Sale, error) {
	for id, s := range m.sales {
		if s.OrderRef != nil && *s.OrderRef == orderRef {
			return m.Get(ctx, id)
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	var out []Sale
	for _, s := range m.sales {
		if req.LocationID != nil && s.LocationID != *req.LocationID {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockRepo) Ledger() *inventory.Ledger { return inventory.NewLedger(m) }

func (m *mockRepo) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	id := args[0].(int64)
	qty := args[1].(int)
	v, ok := m.variants[id]
	switch {
	case strings.Contains(sql, "stock = stock -"):
		if !ok || !v.Active || v.Stock < qty {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		v.Stock -= qty
	case strings.Contains(sql, "stock = stock +"):
		if !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		v.Stock += qty
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *mockRepo) GetLineVariant(ctx context.Context, variantID int64) (*LineVariant, error) {
	v, ok := m.variants[variantID]
	if !ok {
		return nil, fmt.Errorf("variant %d: %w", variantID, ErrVariantNotFound)
	}
	p := m.products[v.ProductID]
	return &LineVariant{
		VariantID:     variantID,
		Color:         v.Color,
		SKU:           v.SKU,
		VariantActive: v.Active,
		ProductID:     v.ProductID,
		ProductName:   p.Name,
		ProductActive: p.Active,
		SalePrice:     p.SalePrice,
	}, nil
}

func (m *mockRepo) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) GetSaleByOrderRefForUpdate(ctx context.Context, orderRef string) (*Sale, error) {
	for _, s := range m.sales {
		if s.OrderRef != nil && *s.OrderRef == orderRef {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetItems(ctx context.Context, saleID int64) ([]SaleItem, error) {
	return append([]SaleItem(nil), m.items[saleID]...), nil
}

func (m *mockRepo) InsertSale(ctx context.Context, s Sale) (int64, error) {
	s.ID = m.nextID
	m.nextID++
	m.sales[s.ID] = &s
	return s.ID, nil
}

func (m *mockRepo) InsertItems(ctx context.Context, saleID int64, items []SaleItem) error {
	for i := range items {
		items[i].SaleID = saleID
		items[i].ID = m.nextID
		m.nextID++
	}
	m.items[saleID] = append(m.items[saleID], items...)
	return nil
}

func (m *mockRepo) DeleteItems(ctx context.Context, saleID int64) error {
	delete(m.items, saleID)
	return nil
}

func (m *mockRepo) UpdateSale(ctx context.Context, id int64, updates map[string]any) error {
	s, ok := m.sales[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["total_amount"]; ok {
		s.TotalAmount = v.(int64)
	}
	if v, ok := updates["payment_status"]; ok {
		s.PaymentStatus = v.(PaymentStatus)
	}
	if v, ok := updates["sale_status"]; ok {
		s.SaleStatus = v.(SaleStatus)
	}
	if v, ok := updates["notes"]; ok {
		notes := v.(string)
		s.Notes = &notes
	}
	if v, ok := updates["shipping_status"]; ok {
		st := v.(string)
		s.ShippingStatus = &st
	}
	return nil
}

func (m *mockRepo) DeleteSale(ctx context.Context, id int64) error {
	if _, ok := m.sales[id]; !ok {
		return ErrNotFound
	}
	delete(m.sales, id)
	delete(m.items, id)
	return nil
}

func (m *mockRepo) seed() {
	m.products[1] = &stockProduct{Name: "Lámpara LED", SalePrice: 100, Active: true}
	m.products[2] = &stockProduct{Name: "Ventilador", SalePrice: 50, Active: true}
	m.variants[10] = &stockVariant{ProductID: 1, Color: "Verde", SKU: "LLX-0001-VE", Stock: 10, Active: true}
	m.variants[20] = &stockVariant{ProductID: 2, Color: "Blanco", SKU: "VXX-0001-BL", Stock: 10, Active: true}
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, log shared.AuditLog) error { return nil }

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, noopAudit{}, nil, nil, slog.Default())
}

func seller() shared.Actor { return shared.Actor{ID: 7, Role: shared.RoleSeller} }

func createReq(lines ...LineInput) CreateSaleRequest {
	return CreateSaleRequest{
		Lines:         lines,
		CustomerID:    1,
		LocationID:    3,
		PaymentMethod: PaymentCash,
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateSalePricesFromCatalog(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	// two lines: qty 2 @ 100, qty 1 @ 50 with discount 10 -> 200 + 40 = 240
	sale, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 2},
		LineInput{VariantID: 20, Quantity: 1, Discount: 10},
	))
	require.NoError(t, err)

	assert.Equal(t, int64(240), sale.TotalAmount)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, int64(100), sale.Items[0].UnitPrice)
	assert.Equal(t, int64(200), sale.Items[0].Subtotal)
	assert.Equal(t, int64(40), sale.Items[1].Subtotal)
	assert.Equal(t, 8, repo.variants[10].Stock)
	assert.Equal(t, 9, repo.variants[20].Stock)
	assert.True(t, strings.HasPrefix(sale.Code, "SALE-"))
	assert.Equal(t, ChannelPOS, sale.Channel)
	assert.Equal(t, SaleStatusCompleted, sale.SaleStatus)
}

func TestTotalAlwaysEqualsSumOfSubtotals(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	sale, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 3, Discount: 25},
		LineInput{VariantID: 20, Quantity: 4},
	))
	require.NoError(t, err)

	var sum int64
	for _, item := range sale.Items {
		assert.Equal(t, int64(item.Quantity)*item.UnitPrice-item.Discount, item.Subtotal)
		sum += item.Subtotal
	}
	assert.Equal(t, sum, sale.TotalAmount)
}

func TestCreateSaleEmptyLines(t *testing.T) {
	svc := newTestService(newMockRepo())
	_, err := svc.Create(context.Background(), seller(), createReq())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateSaleDiscountOutOfRange(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	// gross = 100, discount 101
	_, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 1, Discount: 101},
	))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 10, repo.variants[10].Stock)
}

func TestCreateSaleInactiveVariant(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	repo.variants[10].Active = false
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 1},
	))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateSaleStockInsufficientNamesProduct(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	repo.variants[10].Stock = 1
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 2},
	))
	require.ErrorIs(t, err, inventory.ErrStockInsufficient)
	assert.Contains(t, err.Error(), "Lámpara LED")
	assert.Contains(t, err.Error(), "Verde")
	assert.Equal(t, 1, repo.variants[10].Stock)
}

func TestCreateSaleMidLineFailureRollsBackEverything(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	repo.variants[20].Stock = 0
	svc := newTestService(repo)

	// line 1 decrements variant 10 inside the attempt; line 2 fails
	_, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 4},
		LineInput{VariantID: 20, Quantity: 1},
	))
	require.ErrorIs(t, err, inventory.ErrStockInsufficient)

	// post-failure read shows pre-attempt values for every variant involved
	assert.Equal(t, 10, repo.variants[10].Stock)
	assert.Equal(t, 0, repo.variants[20].Stock)
	assert.Empty(t, repo.sales)
}

func TestConcurrentSalesRaceOnOneVariant(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	repo.variants[10].Stock = 5
	svc := newTestService(repo)

	// two buyers want 3 each from a stock of 5: exactly one can win
	first, err1 := svc.Create(context.Background(), seller(), createReq(LineInput{VariantID: 10, Quantity: 3}))
	_, err2 := svc.Create(context.Background(), seller(), createReq(LineInput{VariantID: 10, Quantity: 3}))

	require.NoError(t, err1)
	require.NotNil(t, first)
	assert.ErrorIs(t, err2, inventory.ErrStockInsufficient)
	assert.Equal(t, 2, repo.variants[10].Stock)
	assert.Len(t, repo.sales, 1)
}

func TestRemoveSaleConservesStock(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	sale, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 2},
		LineInput{VariantID: 20, Quantity: 5},
	))
	require.NoError(t, err)
	require.Equal(t, 8, repo.variants[10].Stock)
	require.Equal(t, 5, repo.variants[20].Stock)

	require.NoError(t, svc.Remove(context.Background(), seller(), sale.ID))

	assert.Equal(t, 10, repo.variants[10].Stock)
	assert.Equal(t, 10, repo.variants[20].Stock)
	assert.Empty(t, repo.sales)
	assert.Empty(t, repo.items)
}

func TestUpdateWithIdenticalLinesIsStockNeutral(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	lines := []LineInput{
		{VariantID: 10, Quantity: 2},
		{VariantID: 20, Quantity: 1, Discount: 10},
	}
	sale, err := svc.Create(context.Background(), seller(), createReq(lines...))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), seller(), sale.ID, UpdateSaleRequest{Lines: &lines})
	require.NoError(t, err)

	// restore then reapply nets to zero delta
	assert.Equal(t, 8, repo.variants[10].Stock)
	assert.Equal(t, 9, repo.variants[20].Stock)
	assert.Equal(t, int64(240), updated.TotalAmount)
}

func TestUpdateReplacingLinesReconcilesStock(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	sale, err := svc.Create(context.Background(), seller(), createReq(LineInput{VariantID: 10, Quantity: 4}))
	require.NoError(t, err)
	require.Equal(t, 6, repo.variants[10].Stock)

	newLines := []LineInput{{VariantID: 20, Quantity: 2}}
	updated, err := svc.Update(context.Background(), seller(), sale.ID, UpdateSaleRequest{Lines: &newLines})
	require.NoError(t, err)

	assert.Equal(t, 10, repo.variants[10].Stock)
	assert.Equal(t, 8, repo.variants[20].Stock)
	assert.Equal(t, int64(100), updated.TotalAmount)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, int64(20), updated.Items[0].VariantID)
}

func TestUpdateFailingReapplyRollsBackRestore(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	sale, err := svc.Create(context.Background(), seller(), createReq(LineInput{VariantID: 10, Quantity: 4}))
	require.NoError(t, err)

	// new lines demand more than available even after the restore
	newLines := []LineInput{{VariantID: 10, Quantity: 11}}
	_, err = svc.Update(context.Background(), seller(), sale.ID, UpdateSaleRequest{Lines: &newLines})
	require.ErrorIs(t, err, inventory.ErrStockInsufficient)

	// the interim restore did not leak: stock and items are as before
	assert.Equal(t, 6, repo.variants[10].Stock)
	items, _ := repo.GetItems(context.Background(), sale.ID)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestUpdateAdministrativeFieldsOnly(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	sale, err := svc.Create(context.Background(), seller(), createReq(LineInput{VariantID: 10, Quantity: 2}))
	require.NoError(t, err)

	status := PaymentStatusRefunded
	notes := "returned next day"
	updated, err := svc.Update(context.Background(), seller(), sale.ID, UpdateSaleRequest{
		PaymentStatus: &status,
		Notes:         &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusRefunded, updated.PaymentStatus)
	// no stock effect and total untouched
	assert.Equal(t, 8, repo.variants[10].Stock)
	assert.Equal(t, sale.TotalAmount, updated.TotalAmount)
}

func TestLocationScopeEnforced(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	scoped := shared.Actor{ID: 7, Role: shared.RoleSeller, LocationIDs: []int64{99}}
	_, err := svc.Create(context.Background(), scoped, createReq(LineInput{VariantID: 10, Quantity: 1}))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelByOrderRef(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	orderRef := "a2c4e6"
	req := createReq(LineInput{VariantID: 10, Quantity: 3})
	req.Channel = ChannelEcommerce
	req.OrderRef = &orderRef
	req.PaymentStatus = PaymentStatusPending
	req.SaleStatus = SaleStatusNew

	sale, err := svc.Create(context.Background(), seller(), req)
	require.NoError(t, err)
	require.Equal(t, 7, repo.variants[10].Stock)

	cancelled, err := svc.CancelByOrderRef(context.Background(), seller(), orderRef)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, cancelled.ID)
	assert.Equal(t, SaleStatusCancelled, cancelled.SaleStatus)
	assert.Equal(t, PaymentStatusCancelled, cancelled.PaymentStatus)
	assert.Equal(t, 10, repo.variants[10].Stock)
	// items are kept for audit
	require.Len(t, cancelled.Items, 1)

	// a second cancel must not restore stock twice
	_, err = svc.CancelByOrderRef(context.Background(), seller(), orderRef)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 10, repo.variants[10].Stock)
}

func TestRemoveCancelledSaleDoesNotRestoreTwice(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	orderRef := "b3d5f7"
	req := createReq(LineInput{VariantID: 10, Quantity: 3})
	req.Channel = ChannelEcommerce
	req.OrderRef = &orderRef
	req.PaymentStatus = PaymentStatusPending
	req.SaleStatus = SaleStatusNew

	sale, err := svc.Create(context.Background(), seller(), req)
	require.NoError(t, err)
	require.Equal(t, 7, repo.variants[10].Stock)

	_, err = svc.CancelByOrderRef(context.Background(), seller(), orderRef)
	require.NoError(t, err)
	require.Equal(t, 10, repo.variants[10].Stock)

	// cancellation already returned the stock; deleting the sale must not
	// compensate again
	require.NoError(t, svc.Remove(context.Background(), seller(), sale.ID))
	assert.Equal(t, 10, repo.variants[10].Stock)
	assert.Empty(t, repo.sales)
}

func TestUpdateLinesOnCancelledSaleRejected(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	orderRef := "c4e6a8"
	req := createReq(LineInput{VariantID: 10, Quantity: 3})
	req.Channel = ChannelEcommerce
	req.OrderRef = &orderRef
	req.PaymentStatus = PaymentStatusPending
	req.SaleStatus = SaleStatusNew

	sale, err := svc.Create(context.Background(), seller(), req)
	require.NoError(t, err)
	_, err = svc.CancelByOrderRef(context.Background(), seller(), orderRef)
	require.NoError(t, err)

	newLines := []LineInput{{VariantID: 10, Quantity: 1}}
	_, err = svc.Update(context.Background(), seller(), sale.ID, UpdateSaleRequest{Lines: &newLines})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	// stock unchanged: no restore, no decrement
	assert.Equal(t, 10, repo.variants[10].Stock)
}

func TestVerifyByCode(t *testing.T) {
	repo := newMockRepo()
	repo.seed()
	svc := newTestService(repo)

	sale, err := svc.Create(context.Background(), seller(), createReq(
		LineInput{VariantID: 10, Quantity: 1},
		LineInput{VariantID: 20, Quantity: 2},
	))
	require.NoError(t, err)

	receipt, err := svc.VerifyByCode(context.Background(), sale.Code)
	require.NoError(t, err)
	assert.Equal(t, sale.Code, receipt.Code)
	assert.Equal(t, sale.TotalAmount, receipt.TotalAmount)
	assert.Equal(t, 2, receipt.Lines)

	_, err = svc.VerifyByCode(context.Background(), "SALE-0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaleCodesAreUnique(t *testing.T) {
	a := generateCode(time.Now())
	b := generateCode(time.Now().Add(time.Nanosecond))
	assert.NotEqual(t, a, b)
}
