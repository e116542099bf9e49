package orders

import (
	"errors"
	"time"
)

// Fulfillment statuses. Transitions between them are admin-driven and
// deliberately unconstrained, so a cancelled order can be reopened.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment statuses. Once paid, an order never goes back to pending or failed.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// DefaultEstimatedMinutes is the countdown assigned when an admin moves an
// order to processing without an explicit estimate, and at order creation.
const DefaultEstimatedMinutes = 10

var (
	ErrEmptyCart        = errors.New("cart is empty, cannot create order")
	ErrOrderNotFound    = errors.New("order not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrAdminOnly        = errors.New("admin role required")
)

// OrderItem is a line of a placed order. PriceAtPurchase is snapshotted at
// creation and never recomputed from the live menu.
type OrderItem struct {
	MenuItemID      string `json:"menu_item_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase int64  `json:"price_at_purchase"`
}

// Order is the persisted ledger entry for one checkout. Prices are in paise.
type Order struct {
	ID                     string      `json:"id"`
	UserID                 string      `json:"user_id"`
	Items                  []OrderItem `json:"items"`
	TotalPrice             int64       `json:"total_price"`
	Status                 string      `json:"status"`
	PaymentStatus          string      `json:"payment_status"`
	EstimatedTimeRemaining int64       `json:"estimated_time_remaining"`
	RazorpayOrderID        string      `json:"razorpay_order_id"`
	RazorpayPaymentID      string      `json:"razorpay_payment_id"`
	RazorpaySignature      string      `json:"-"`
	Notes                  string      `json:"notes"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// CreatedOrder is what checkout returns: the ledger id plus the gateway
// order the client pays against.
type CreatedOrder struct {
	OrderID         string `json:"orderId"`
	RazorpayOrderID string `json:"razorpayOrderId"`
}

// DisplayItem is an order line resolved against the menu for display. Price
// is the price at purchase, not the current menu price.
type DisplayItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	FoodImage  string `json:"foodImage"`
	Quantity   int    `json:"quantity"`
}

// UserOrder is one order shaped for the owner's order history.
type UserOrder struct {
	ID                     string        `json:"id"`
	Items                  []DisplayItem `json:"items"`
	TotalPrice             int64         `json:"total_price"`
	Status                 string        `json:"status"`
	PaymentStatus          string        `json:"payment_status"`
	EstimatedTimeRemaining int64         `json:"estimated_time_remaining"`
	CreatedAt              time.Time     `json:"created_at"`
}

// AdminOrder adds the purchaser's identity for the admin listing.
type AdminOrder struct {
	UserOrder
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// ValidStatus reports whether s is one of the three fulfillment states.
func ValidStatus(s string) bool {
	return s == StatusProcessing || s == StatusCompleted || s == StatusCancelled
}
