package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"velora_back_end/internal/models"
	"velora_back_end/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ============================================
// Fakes en mémoire (mêmes sémantiques que les
// mises à jour conditionnelles du repository)
// ============================================

type fakeOrderStore struct {
	orders      map[primitive.ObjectID]models.Order
	createCalls int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[primitive.ObjectID]models.Order{}}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	f.createCalls++
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	f.orders[order.ID] = *order
	out := *order
	return &out, nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	out := order
	return &out, nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, id primitive.ObjectID, result models.PaymentResult, at time.Time) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if order.IsPaid {
		return nil, repository.ErrOrderAlreadyPaid
	}
	order.IsPaid = true
	order.PaidAt = &at
	order.PaymentResult = &result
	f.orders[id] = order
	out := order
	return &out, nil
}

func (f *fakeOrderStore) MarkDelivered(_ context.Context, id primitive.ObjectID, at time.Time, settleCOD bool) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if order.IsDelivered {
		return nil, repository.ErrOrderAlreadyDelivered
	}
	if !order.DeliveryEligible() {
		return nil, repository.ErrOrderNotEligible
	}
	order.IsDelivered = true
	order.DeliveredAt = &at
	if settleCOD && !order.IsPaid {
		order.IsPaid = true
		order.PaidAt = &at
		order.PaymentResult = &models.PaymentResult{ID: "COD-" + id.Hex(), Status: "settled_on_delivery"}
	}
	f.orders[id] = order
	out := order
	return &out, nil
}

func (f *fakeOrderStore) SetCashOnDelivery(_ context.Context, id primitive.ObjectID, ref string) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if order.IsPaid {
		return nil, repository.ErrOrderAlreadyPaid
	}
	order.PaymentMethod = models.PaymentMethodCashOnDelivery
	order.PaymentResult = &models.PaymentResult{ID: ref, Status: "pending_delivery"}
	f.orders[id] = order
	out := order
	return &out, nil
}

type fakeProductStore struct {
	products map[primitive.ObjectID]models.Product
}

func newFakeProductStore(products ...models.Product) *fakeProductStore {
	f := &fakeProductStore{products: map[primitive.ObjectID]models.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	found := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (f *fakeProductStore) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.CountInStock < qty {
		return repository.ErrInsufficientStock
	}
	p.CountInStock -= qty
	f.products[id] = p
	return nil
}

func (f *fakeProductStore) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	p := f.products[id]
	p.CountInStock += qty
	f.products[id] = p
	return nil
}

type fakeCharger struct {
	result models.PaymentResult
	err    error
	calls  int
}

func (f *fakeCharger) Charge(_ context.Context, _ *models.Order, _ string) (models.PaymentResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestService(orders *fakeOrderStore, products *fakeProductStore, charger *fakeCharger) *Service {
	if charger == nil {
		charger = &fakeCharger{}
	}
	return NewService(orders, products, charger)
}

func testProduct(price float64, stock int) models.Product {
	return models.Product{
		ID:           primitive.NewObjectID(),
		Name:         "Produit test",
		Price:        price,
		CountInStock: stock,
		Image:        "/images/test.jpg",
	}
}

var testAddress = models.ShippingAddress{
	Address:    "12 rue des Lilas",
	City:       "Bruxelles",
	PostalCode: "1000",
	Country:    "Belgique",
}

// ============================================
// CreateOrder
// ============================================

func TestCreateOrder_EmptyItems(t *testing.T) {
	orders := newFakeOrderStore()
	svc := newTestService(orders, newFakeProductStore(), nil)

	_, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(), nil, testAddress, models.PaymentMethodPayPal)

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, 0, orders.createCalls)
}

func TestCreateOrder_InvalidQuantity(t *testing.T) {
	p := testProduct(10, 5)
	svc := newTestService(newFakeOrderStore(), newFakeProductStore(p), nil)

	_, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: p.ID, Qty: 0}}, testAddress, models.PaymentMethodPayPal)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateOrder_UnknownPaymentMethod(t *testing.T) {
	p := testProduct(10, 5)
	svc := newTestService(newFakeOrderStore(), newFakeProductStore(p), nil)

	_, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: p.ID, Qty: 1}}, testAddress, "Chèque")

	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestCreateOrder_ProductMissing_NothingPersisted(t *testing.T) {
	p := testProduct(10, 5)
	orders := newFakeOrderStore()
	products := newFakeProductStore(p)
	svc := newTestService(orders, products, nil)

	missing := primitive.NewObjectID()
	_, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: p.ID, Qty: 1}, {ProductID: missing, Qty: 1}},
		testAddress, models.PaymentMethodPayPal)

	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.Contains(t, err.Error(), missing.Hex())
	assert.Equal(t, 0, orders.createCalls)
	assert.Equal(t, 5, products.products[p.ID].CountInStock) // stock intact
}

func TestCreateOrder_UsesCatalogPrice(t *testing.T) {
	// Le client prétend payer 1€ — le catalogue dit 50€. Le prix client
	// n'entre même pas dans le workflow : itemsPrice = 50 × 2 = 100.
	p := testProduct(50, 10)
	orders := newFakeOrderStore()
	svc := newTestService(orders, newFakeProductStore(p), nil)

	order, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: p.ID, Qty: 2}}, testAddress, models.PaymentMethodPayPal)

	require.NoError(t, err)
	assert.Equal(t, 100.00, order.ItemsPrice)
	assert.Equal(t, 50.00, order.Items[0].Price)
	assert.Equal(t, 10.00, order.ShippingPrice) // 100 n'est pas > 100
	assert.Equal(t, 15.00, order.TaxPrice)
	assert.Equal(t, 125.00, order.TotalPrice)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsDelivered)
	assert.Nil(t, order.PaidAt)
	assert.Nil(t, order.DeliveredAt)
	assert.Equal(t, 1, orders.createCalls)
}

func TestCreateOrder_FreeShipping(t *testing.T) {
	p := testProduct(80, 10)
	svc := newTestService(newFakeOrderStore(), newFakeProductStore(p), nil)

	order, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: p.ID, Qty: 2}}, testAddress, models.PaymentMethodStripe)

	require.NoError(t, err)
	assert.Equal(t, 160.00, order.ItemsPrice)
	assert.Equal(t, 0.00, order.ShippingPrice)
	assert.Equal(t, 24.00, order.TaxPrice)
	assert.Equal(t, 184.00, order.TotalPrice)
}

func TestCreateOrder_DecrementsStock(t *testing.T) {
	p := testProduct(20, 5)
	products := newFakeProductStore(p)
	svc := newTestService(newFakeOrderStore(), products, nil)

	_, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: p.ID, Qty: 3}}, testAddress, models.PaymentMethodPayPal)

	require.NoError(t, err)
	assert.Equal(t, 2, products.products[p.ID].CountInStock)
}

func TestCreateOrder_InsufficientStock_RollsBack(t *testing.T) {
	a := testProduct(20, 5)
	b := testProduct(30, 1)
	orders := newFakeOrderStore()
	products := newFakeProductStore(a, b)
	svc := newTestService(orders, products, nil)

	_, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: a.ID, Qty: 2}, {ProductID: b.ID, Qty: 4}},
		testAddress, models.PaymentMethodPayPal)

	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Equal(t, 0, orders.createCalls)
	// La réservation du premier produit a été rendue
	assert.Equal(t, 5, products.products[a.ID].CountInStock)
	assert.Equal(t, 1, products.products[b.ID].CountInStock)
}

// ============================================
// MarkPaid / PayPal
// ============================================

func placedOrder(t *testing.T, svc *Service, products *fakeProductStore, method string) *models.Order {
	t.Helper()
	p := testProduct(60, 10)
	products.products[p.ID] = p

	order, err := svc.CreateOrder(context.Background(), primitive.NewObjectID(),
		[]RequestedItem{{ProductID: p.ID, Qty: 1}}, testAddress, method)
	require.NoError(t, err)
	return order
}

func TestMarkPaid_UnknownOrder(t *testing.T) {
	svc := newTestService(newFakeOrderStore(), newFakeProductStore(), nil)

	_, err := svc.MarkPaid(context.Background(), primitive.NewObjectID(), models.PaymentResult{ID: "PAY-1"})

	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestMarkPaid_SecondCallRejected(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	first, err := svc.MarkPaid(context.Background(), order.ID, models.PaymentResult{ID: "PAY-1", Status: "COMPLETED"})
	require.NoError(t, err)
	require.True(t, first.IsPaid)
	require.NotNil(t, first.PaidAt)

	_, err = svc.MarkPaid(context.Background(), order.ID, models.PaymentResult{ID: "PAY-2", Status: "COMPLETED"})
	assert.ErrorIs(t, err, repository.ErrOrderAlreadyPaid)

	// Le reçu initial n'a pas été écrasé
	stored := orders.orders[order.ID]
	assert.Equal(t, "PAY-1", stored.PaymentResult.ID)
}

func TestProcessPayPalPayment_Success(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	paid, err := svc.ProcessPayPalPayment(context.Background(), order.ID, PayPalConfirmation{
		ID:         "5O190127TN364715T",
		Status:     "COMPLETED",
		UpdateTime: "2026-08-30T10:00:00Z",
		PayerEmail: "client@example.com",
	})

	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "5O190127TN364715T", paid.PaymentResult.ID)
	assert.Equal(t, "client@example.com", paid.PaymentResult.Email)
}

func TestProcessPayPalPayment_FailedCapture_LeavesOrderUnpaid(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	_, err := svc.ProcessPayPalPayment(context.Background(), order.ID, PayPalConfirmation{
		ID:     "5O190127TN364715T",
		Status: "DECLINED",
	})

	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.False(t, orders.orders[order.ID].IsPaid)
	assert.Nil(t, orders.orders[order.ID].PaidAt)
}

func TestProcessPayPalPayment_MissingTransactionID(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	_, err := svc.ProcessPayPalPayment(context.Background(), order.ID, PayPalConfirmation{Status: "COMPLETED"})

	assert.ErrorIs(t, err, ErrPaymentFailed)
}

// ============================================
// Stripe
// ============================================

func TestProcessStripePayment_Success(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	charger := &fakeCharger{result: models.PaymentResult{ID: "pi_123", Status: "succeeded"}}
	svc := newTestService(orders, products, charger)
	order := placedOrder(t, svc, products, models.PaymentMethodStripe)

	paid, err := svc.ProcessStripePayment(context.Background(), order.ID, "pm_card_visa")

	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "pi_123", paid.PaymentResult.ID)
	assert.Equal(t, 1, charger.calls)
}

func TestProcessStripePayment_ChargeRefused_LeavesOrderUnpaid(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	charger := &fakeCharger{err: errors.New("carte refusée")}
	svc := newTestService(orders, products, charger)
	order := placedOrder(t, svc, products, models.PaymentMethodStripe)

	_, err := svc.ProcessStripePayment(context.Background(), order.ID, "pm_card_declined")

	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.False(t, orders.orders[order.ID].IsPaid)
}

func TestProcessStripePayment_AlreadyPaid_NoCharge(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	charger := &fakeCharger{result: models.PaymentResult{ID: "pi_123"}}
	svc := newTestService(orders, products, charger)
	order := placedOrder(t, svc, products, models.PaymentMethodStripe)

	_, err := svc.MarkPaid(context.Background(), order.ID, models.PaymentResult{ID: "pi_000"})
	require.NoError(t, err)

	_, err = svc.ProcessStripePayment(context.Background(), order.ID, "pm_card_visa")
	assert.ErrorIs(t, err, repository.ErrOrderAlreadyPaid)
	assert.Equal(t, 0, charger.calls)
}

// ============================================
// Paiement à la livraison / livraison
// ============================================

func TestProcessCashOnDelivery_DoesNotMarkPaid(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	cod, err := svc.ProcessCashOnDelivery(context.Background(), order.ID)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodCashOnDelivery, cod.PaymentMethod)
	assert.False(t, cod.IsPaid)
	assert.Nil(t, cod.PaidAt)
	require.NotNil(t, cod.PaymentResult)
	assert.Equal(t, "pending_delivery", cod.PaymentResult.Status)
}

func TestMarkDelivered_UnpaidOnlineOrder_Rejected(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	_, err := svc.MarkDelivered(context.Background(), order.ID)

	assert.ErrorIs(t, err, repository.ErrOrderNotEligible)
	assert.False(t, orders.orders[order.ID].IsDelivered)
}

func TestMarkDelivered_PaidOrder(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	_, err := svc.MarkPaid(context.Background(), order.ID, models.PaymentResult{ID: "PAY-1", Status: "COMPLETED"})
	require.NoError(t, err)

	delivered, err := svc.MarkDelivered(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.NotNil(t, delivered.DeliveredAt)
}

func TestMarkDelivered_CODSettlesPayment(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	_, err := svc.ProcessCashOnDelivery(context.Background(), order.ID)
	require.NoError(t, err)

	delivered, err := svc.MarkDelivered(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.True(t, delivered.IsPaid)
	require.NotNil(t, delivered.PaidAt)
	assert.Equal(t, *delivered.DeliveredAt, *delivered.PaidAt)
	assert.Equal(t, "settled_on_delivery", delivered.PaymentResult.Status)
}

func TestMarkDelivered_Twice_Rejected(t *testing.T) {
	orders := newFakeOrderStore()
	products := newFakeProductStore()
	svc := newTestService(orders, products, nil)
	order := placedOrder(t, svc, products, models.PaymentMethodPayPal)

	_, err := svc.MarkPaid(context.Background(), order.ID, models.PaymentResult{ID: "PAY-1"})
	require.NoError(t, err)
	_, err = svc.MarkDelivered(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.MarkDelivered(context.Background(), order.ID)
	assert.ErrorIs(t, err, repository.ErrOrderAlreadyDelivered)
}

func TestMarkDelivered_UnknownOrder(t *testing.T) {
	svc := newTestService(newFakeOrderStore(), newFakeProductStore(), nil)

	_, err := svc.MarkDelivered(context.Background(), primitive.NewObjectID())

	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
