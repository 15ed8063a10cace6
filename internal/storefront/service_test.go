package storefront

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-retail/atlas-retail/internal/customers"
	"github.com/atlas-retail/atlas-retail/internal/sales"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

type mockSales struct {
	lastReq     sales.CreateSaleRequest
	lastActor   shared.Actor
	createError error
}

func (m *mockSales) Create(ctx context.Context, actor shared.Actor, req sales.CreateSaleRequest) (*sales.Sale, error) {
	m.lastReq = req
	m.lastActor = actor
	if m.createError != nil {
		return nil, m.createError
	}
	return &sales.Sale{
		ID:         42,
		Code:       "SALE-1",
		CustomerID: req.CustomerID,
		LocationID: req.LocationID,
		OperatorID: actor.ID,
		Channel:    req.Channel,
		OrderRef:   req.OrderRef,
	}, nil
}

func (m *mockSales) GetByOrderRef(ctx context.Context, orderRef string) (*sales.Sale, error) {
	return nil, sales.ErrNotFound
}

func (m *mockSales) CancelByOrderRef(ctx context.Context, actor shared.Actor, orderRef string) (*sales.Sale, error) {
	return nil, sales.ErrNotFound
}

func (m *mockSales) UpdateGatewayPayment(ctx context.Context, actor shared.Actor, orderRef string, status sales.PaymentStatus, gatewayTxnID *string) (*sales.Sale, error) {
	return nil, sales.ErrNotFound
}

func (m *mockSales) UpdateShipping(ctx context.Context, actor shared.Actor, orderRef string, shippingStatus string, carrier, trackingNumber *string) (*sales.Sale, error) {
	return nil, sales.ErrNotFound
}

type mockCustomers struct {
	created int
}

func (m *mockCustomers) FindOrCreateByEmail(ctx context.Context, in customers.ContactInput) (*customers.Customer, error) {
	m.created++
	return &customers.Customer{ID: 9, Name: in.Name}, nil
}

type mockIdempotency struct {
	keys    map[string]bool
	deleted []string
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{keys: map[string]bool{}}
}

func (m *mockIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *mockIdempotency) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func strPtr(s string) *string { return &s }

func checkoutReq() CheckoutRequest {
	return CheckoutRequest{
		Customer: customers.ContactInput{Name: "Ana", Email: "ana@example.com"},
		Lines:    []sales.LineInput{{VariantID: 10, Quantity: 1}},
	}
}

func newFixture() (*Service, *mockSales, *mockCustomers, *mockIdempotency) {
	salesSvc := &mockSales{}
	customerSvc := &mockCustomers{}
	idem := newMockIdempotency()
	svc := NewService(salesSvc, customerSvc, idem, Config{LocationID: 3, OperatorID: 1}, slog.Default())
	return svc, salesSvc, customerSvc, idem
}

func TestCheckoutFixesOperatorLocationAndChannel(t *testing.T) {
	svc, salesSvc, customerSvc, _ := newFixture()

	sale, err := svc.Checkout(context.Background(), checkoutReq())
	require.NoError(t, err)

	assert.Equal(t, int64(3), salesSvc.lastReq.LocationID)
	assert.Equal(t, int64(9), salesSvc.lastReq.CustomerID)
	assert.Equal(t, sales.ChannelEcommerce, salesSvc.lastReq.Channel)
	assert.Equal(t, sales.PaymentOnline, salesSvc.lastReq.PaymentMethod)
	assert.Equal(t, sales.SaleStatusNew, salesSvc.lastReq.SaleStatus)
	assert.Equal(t, sales.PaymentStatusPending, salesSvc.lastReq.PaymentStatus)
	assert.Equal(t, shared.RoleSystem, salesSvc.lastActor.Role)
	assert.Equal(t, int64(1), salesSvc.lastActor.ID)
	require.NotNil(t, sale.OrderRef)
	assert.NotEmpty(t, *sale.OrderRef)
	assert.Equal(t, 1, customerSvc.created)
}

func TestCheckoutWithGatewayTxnIsPaid(t *testing.T) {
	svc, salesSvc, _, _ := newFixture()

	req := checkoutReq()
	req.GatewayTxnID = strPtr("txn-1")
	_, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, sales.PaymentStatusPaid, salesSvc.lastReq.PaymentStatus)
}

func TestCheckoutDuplicateGatewayReference(t *testing.T) {
	svc, _, customerSvc, _ := newFixture()

	req := checkoutReq()
	req.GatewayReference = strPtr("ref-1")

	_, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateCheckout)
	// the replay never reached customer resolution
	assert.Equal(t, 1, customerSvc.created)
}

func TestCheckoutFailureReleasesIdempotencyKey(t *testing.T) {
	svc, salesSvc, _, idem := newFixture()
	salesSvc.createError = sales.ErrInvalidInput

	req := checkoutReq()
	req.GatewayReference = strPtr("ref-2")

	_, err := svc.Checkout(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrInvalidInput)
	assert.Contains(t, idem.deleted, "ref-2")

	// a retry with the same reference is allowed after the failure
	salesSvc.createError = nil
	_, err = svc.Checkout(context.Background(), req)
	assert.NoError(t, err)
}

func TestGetOrderNotFound(t *testing.T) {
	svc, _, _, _ := newFixture()
	_, err := svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
