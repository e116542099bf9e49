package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/auth"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/cart"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/clock"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/gateway"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/google/uuid"
)

// Store is the ledger persistence boundary.
type Store interface {
	CreateOrder(ctx context.Context, order Order) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetOrderByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]UserOrder, error)
	ListAll(ctx context.Context) ([]AdminOrder, error)
	UpdateStatus(ctx context.Context, orderID, status string, estimatedMs int64) (Order, error)
	// MarkPaid flips payment_status pending -> paid and records the gateway
	// references. It is a compare-and-swap: an already-paid order is left
	// untouched and reported as such, never an error.
	MarkPaid(ctx context.Context, orderID, paymentID, signature string) (Order, error)
	SetRemaining(ctx context.Context, orderID string, remainingMs int64) error
	ListProcessing(ctx context.Context) ([]Order, error)
}

// CartStore is the slice of the cart collaborator the order flow needs.
type CartStore interface {
	Get(ctx context.Context, userID string) ([]cart.Line, error)
	Clear(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
}

// Catalog resolves menu item references at checkout time.
type Catalog interface {
	GetItemByID(ctx context.Context, id string) (menu.Item, error)
}

type Conf struct {
	store     Store
	carts     CartStore
	catalog   Catalog
	gw        gateway.Gateway
	scheduler *Scheduler
	clk       clock.Clock
}

func NewConf(store Store, carts CartStore, catalog Catalog, gw gateway.Gateway,
	scheduler *Scheduler, clk clock.Clock) (*Conf, error) {
	if store == nil || carts == nil || catalog == nil || gw == nil || scheduler == nil || clk == nil {
		return nil, fmt.Errorf("orders.NewConf: nil dependency")
	}
	return &Conf{
		store:     store,
		carts:     carts,
		catalog:   catalog,
		gw:        gw,
		scheduler: scheduler,
		clk:       clk,
	}, nil
}

// CreateOrder places an order from the user's cart: snapshots prices,
// creates the gateway order, persists the ledger entry and clears the cart.
// The order counts as placed once the gateway order exists, before payment.
func (c *Conf) CreateOrder(ctx context.Context, userID string) (CreatedOrder, error) {
	lines, err := c.carts.Get(ctx, userID)
	if err != nil {
		return CreatedOrder{}, fmt.Errorf("reading cart: %w", err)
	}
	if len(lines) == 0 {
		return CreatedOrder{}, ErrEmptyCart
	}

	var items []OrderItem
	var total int64
	for _, line := range lines {
		item, err := c.catalog.GetItemByID(ctx, line.MenuItemID)
		if err != nil {
			return CreatedOrder{}, fmt.Errorf("%w: %s", ErrMenuItemNotFound, line.MenuItemID)
		}
		items = append(items, OrderItem{
			MenuItemID:      item.ID,
			Quantity:        line.Quantity,
			PriceAtPurchase: item.Price,
		})
		total += item.Price * int64(line.Quantity)
	}

	// Menu prices are already in paise, Razorpay's minor unit.
	receipt := fmt.Sprintf("order_%d", c.clk.Now().UnixMilli())
	razorpayOrderID, err := c.gw.CreateOrder(ctx, total, "INR", receipt)
	if err != nil {
		return CreatedOrder{}, err
	}

	order := Order{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		Items:                  items,
		TotalPrice:             total,
		Status:                 StatusProcessing,
		PaymentStatus:          PaymentPending,
		EstimatedTimeRemaining: DefaultEstimatedMinutes * 60000,
		RazorpayOrderID:        razorpayOrderID,
	}
	if err := c.store.CreateOrder(ctx, order); err != nil {
		// The gateway order is orphaned here; it expires unused on the
		// provider side.
		return CreatedOrder{}, fmt.Errorf("persisting order: %w", err)
	}

	if err := c.carts.Clear(ctx, userID); err != nil {
		// The order is already placed; a stale cart is recoverable.
		slog.Error("failed to clear cart after order creation",
			slog.String(logkey.UserID, userID),
			slog.String(logkey.OrderID, order.ID),
			slog.String(logkey.ERROR, err.Error()))
	}

	return CreatedOrder{OrderID: order.ID, RazorpayOrderID: razorpayOrderID}, nil
}

// UserOrders returns the user's order history with display fields resolved.
// An empty history is a valid, empty slice.
func (c *Conf) UserOrders(ctx context.Context, userID string) ([]UserOrder, error) {
	return c.store.ListByUser(ctx, userID)
}

// AllOrders returns every order with purchaser identity attached. Admin only.
func (c *Conf) AllOrders(ctx context.Context, role string) ([]AdminOrder, error) {
	if role != auth.RoleAdmin {
		return nil, ErrAdminOnly
	}
	return c.store.ListAll(ctx)
}

// UpdateStatus moves an order between fulfillment states. Moving to
// processing (re)arms the countdown with the given estimate (default 10
// minutes); completed and cancelled zero the countdown and stop the timer.
func (c *Conf) UpdateStatus(ctx context.Context, role, orderID, status string, estimatedMinutes *int) (Order, error) {
	if role != auth.RoleAdmin {
		return Order{}, ErrAdminOnly
	}
	if !ValidStatus(status) {
		return Order{}, ErrInvalidStatus
	}

	var estimatedMs int64
	if status == StatusProcessing {
		minutes := DefaultEstimatedMinutes
		if estimatedMinutes != nil && *estimatedMinutes > 0 {
			minutes = *estimatedMinutes
		}
		estimatedMs = int64(minutes) * 60000
	}

	order, err := c.store.UpdateStatus(ctx, orderID, status, estimatedMs)
	if err != nil {
		return Order{}, err
	}

	if status == StatusProcessing {
		c.scheduler.Start(orderID)
	} else {
		c.scheduler.Stop(orderID)
	}
	return order, nil
}

// MarkPaid records a verified payment against the ledger entry correlated to
// the given gateway order. Setting paid twice is a harmless no-op, so the
// client-confirmation and webhook paths may race freely.
func (c *Conf) MarkPaid(ctx context.Context, razorpayOrderID, paymentID, signature string) (Order, error) {
	order, err := c.store.GetOrderByRazorpayOrderID(ctx, razorpayOrderID)
	if err != nil {
		return Order{}, err
	}
	return c.store.MarkPaid(ctx, order.ID, paymentID, signature)
}

// DeleteCart removes the purchaser's cart record after payment; creation-time
// clearing normally makes this a no-op.
func (c *Conf) DeleteCart(ctx context.Context, userID string) error {
	return c.carts.Delete(ctx, userID)
}
