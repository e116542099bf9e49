package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/cart"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/gateway"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
)

// fakeStore is an in-memory Store used across the package tests.
type fakeStore struct {
	mu     sync.Mutex
	orders map[string]Order

	failSetRemaining bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[string]Order)}
}

func (f *fakeStore) CreateOrder(_ context.Context, order Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.ID]; ok {
		return fmt.Errorf("duplicate order id %s", order.ID)
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID string) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeStore) GetOrderByRazorpayOrderID(_ context.Context, razorpayOrderID string) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.RazorpayOrderID == razorpayOrderID {
			return order, nil
		}
	}
	return Order{}, ErrOrderNotFound
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]UserOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []UserOrder{}
	for _, order := range f.orders {
		if order.UserID != userID {
			continue
		}
		uo := UserOrder{
			ID:                     order.ID,
			TotalPrice:             order.TotalPrice,
			Status:                 order.Status,
			PaymentStatus:          order.PaymentStatus,
			EstimatedTimeRemaining: order.EstimatedTimeRemaining,
			CreatedAt:              order.CreatedAt,
		}
		for _, item := range order.Items {
			uo.Items = append(uo.Items, DisplayItem{
				MenuItemID: item.MenuItemID,
				Price:      item.PriceAtPurchase,
				Quantity:   item.Quantity,
			})
		}
		result = append(result, uo)
	}
	return result, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]AdminOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []AdminOrder{}
	for _, order := range f.orders {
		result = append(result, AdminOrder{
			UserOrder: UserOrder{
				ID:            order.ID,
				TotalPrice:    order.TotalPrice,
				Status:        order.Status,
				PaymentStatus: order.PaymentStatus,
			},
			UserID: order.UserID,
		})
	}
	return result, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, orderID, status string, estimatedMs int64) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	order.Status = status
	order.EstimatedTimeRemaining = estimatedMs
	f.orders[orderID] = order
	return order, nil
}

func (f *fakeStore) MarkPaid(_ context.Context, orderID, paymentID, signature string) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if order.PaymentStatus == PaymentPending {
		order.PaymentStatus = PaymentPaid
		order.RazorpayPaymentID = paymentID
		order.RazorpaySignature = signature
		f.orders[orderID] = order
	}
	return f.orders[orderID], nil
}

func (f *fakeStore) SetRemaining(_ context.Context, orderID string, remainingMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetRemaining {
		return fmt.Errorf("boom")
	}
	order, ok := f.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	order.EstimatedTimeRemaining = remainingMs
	f.orders[orderID] = order
	return nil
}

func (f *fakeStore) ListProcessing(_ context.Context) ([]Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Order
	for _, order := range f.orders {
		if order.Status == StatusProcessing {
			result = append(result, order)
		}
	}
	return result, nil
}

// fakeCart is an in-memory CartStore.
type fakeCart struct {
	mu      sync.Mutex
	lines   map[string][]cart.Line
	deleted map[string]bool
}

func newFakeCart() *fakeCart {
	return &fakeCart{
		lines:   make(map[string][]cart.Line),
		deleted: make(map[string]bool),
	}
}

func (f *fakeCart) Get(_ context.Context, userID string) ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines[userID], nil
}

func (f *fakeCart) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[userID] = nil
	return nil
}

func (f *fakeCart) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, userID)
	f.deleted[userID] = true
	return nil
}

// fakeCatalog resolves menu items from a fixed map.
type fakeCatalog struct {
	items map[string]menu.Item
}

func (f *fakeCatalog) GetItemByID(_ context.Context, id string) (menu.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return menu.Item{}, menu.ErrItemNotFound
	}
	return item, nil
}

// fakeGateway returns a canned order id or a failure.
type fakeGateway struct {
	orderID string
	fail    bool

	gotAmount   int64
	gotCurrency string
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, currency, receipt string) (string, error) {
	if f.fail {
		return "", gateway.ErrGatewayUnavailable
	}
	f.gotAmount = amountPaise
	f.gotCurrency = currency
	return f.orderID, nil
}
