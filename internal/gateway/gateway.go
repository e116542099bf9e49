package gateway

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

var (
	// ErrGatewayUnavailable covers any transport or provider failure while
	// creating a gateway order.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrVerificationFailed means a supplied signature did not match.
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Gateway creates payment-intent orders at the provider. Verification is
// plain HMAC over provider-defined strings and lives in signature.go.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)
}

// Razorpay is the production Gateway.
type Razorpay struct {
	client *razorpay.Client
}

func NewRazorpay(keyID, keySecret string) (*Razorpay, error) {
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("razorpay credentials missing")
	}
	return &Razorpay{client: razorpay.NewClient(keyID, keySecret)}, nil
}

// CreateOrder registers a payment order for the given amount (in paise) and
// returns the provider's order id.
func (r *Razorpay) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("%w: order id missing in response", ErrGatewayUnavailable)
	}
	return orderID, nil
}
