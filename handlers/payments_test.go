package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/cart"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/clock"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/orders"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"

	"github.com/gin-gonic/gin"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

// paymentStore backs the payment handler tests with a single in-memory order.
type paymentStore struct {
	order         orders.Order
	markPaidCalls int
}

func (s *paymentStore) CreateOrder(context.Context, orders.Order) error { return nil }

func (s *paymentStore) GetOrder(_ context.Context, orderID string) (orders.Order, error) {
	if s.order.ID != orderID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return s.order, nil
}

func (s *paymentStore) GetOrderByRazorpayOrderID(_ context.Context, razorpayOrderID string) (orders.Order, error) {
	if s.order.RazorpayOrderID != razorpayOrderID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return s.order, nil
}

func (s *paymentStore) ListByUser(context.Context, string) ([]orders.UserOrder, error) {
	return nil, nil
}

func (s *paymentStore) ListAll(context.Context) ([]orders.AdminOrder, error) { return nil, nil }

func (s *paymentStore) UpdateStatus(_ context.Context, orderID, status string, estimatedMs int64) (orders.Order, error) {
	return orders.Order{}, orders.ErrOrderNotFound
}

func (s *paymentStore) MarkPaid(_ context.Context, orderID, paymentID, signature string) (orders.Order, error) {
	if s.order.ID != orderID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	s.markPaidCalls++
	if s.order.PaymentStatus == orders.PaymentPending {
		s.order.PaymentStatus = orders.PaymentPaid
		s.order.RazorpayPaymentID = paymentID
		s.order.RazorpaySignature = signature
	}
	return s.order, nil
}

func (s *paymentStore) SetRemaining(context.Context, string, int64) error { return nil }

func (s *paymentStore) ListProcessing(context.Context) ([]orders.Order, error) { return nil, nil }

type noCart struct{}

func (noCart) Get(context.Context, string) ([]cart.Line, error) { return nil, nil }
func (noCart) Clear(context.Context, string) error              { return nil }
func (noCart) Delete(context.Context, string) error             { return nil }

type noCatalog struct{}

func (noCatalog) GetItemByID(context.Context, string) (menu.Item, error) {
	return menu.Item{}, menu.ErrItemNotFound
}

type noGateway struct{}

func (noGateway) CreateOrder(context.Context, int64, string, string) (string, error) {
	return "", nil
}

func newPaymentRouter(t *testing.T) (*gin.Engine, *paymentStore) {
	t.Helper()
	t.Setenv("RAZORPAY_KEY_SECRET", testKeySecret)
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", testWebhookSecret)
	gin.SetMode(gin.TestMode)

	store := &paymentStore{order: orders.Order{
		ID:              "o-1",
		UserID:          "user-1",
		TotalPrice:      28500,
		Status:          orders.StatusProcessing,
		PaymentStatus:   orders.PaymentPending,
		RazorpayOrderID: "order_rzp_1",
	}}
	scheduler := orders.NewScheduler(store, time.Hour)
	orderConf, err := orders.NewConf(store, noCart{}, noCatalog{}, noGateway{}, scheduler,
		clock.NewFixed(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("orders.NewConf: %v", err)
	}

	h := NewHandler(nil, nil, nil, orderConf, nil, nil)
	r := gin.New()
	r.POST("/api/payments/verify", h.VerifyPayment)
	r.POST("/api/payments/webhook", h.Webhook)
	return r, store
}

func hmacHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiresponse.Response {
	t.Helper()
	var resp apiresponse.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestVerifyPayment(t *testing.T) {
	postVerify := func(r *gin.Engine, body any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/payments/verify", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("valid signature marks the order paid", func(t *testing.T) {
		r, store := newPaymentRouter(t)
		sig := hmacHex(testKeySecret, []byte("order_rzp_1|pay_1"))

		w := postVerify(r, gin.H{
			"razorpay_order_id":   "order_rzp_1",
			"razorpay_payment_id": "pay_1",
			"razorpay_signature":  sig,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
		if resp := decodeResponse(t, w); resp.Message != "Payment Verified" {
			t.Errorf("message = %q, want Payment Verified", resp.Message)
		}
		if store.order.PaymentStatus != orders.PaymentPaid {
			t.Errorf("PaymentStatus = %q, want paid", store.order.PaymentStatus)
		}
		if store.order.RazorpayPaymentID != "pay_1" {
			t.Errorf("RazorpayPaymentID = %q, want pay_1", store.order.RazorpayPaymentID)
		}
	})

	t.Run("bad signature leaves the order untouched", func(t *testing.T) {
		r, store := newPaymentRouter(t)
		sig := hmacHex("wrong_secret", []byte("order_rzp_1|pay_1"))

		w := postVerify(r, gin.H{
			"razorpay_order_id":   "order_rzp_1",
			"razorpay_payment_id": "pay_1",
			"razorpay_signature":  sig,
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if resp := decodeResponse(t, w); resp.Message != "Payment verification failed!" {
			t.Errorf("message = %q", resp.Message)
		}
		if store.markPaidCalls != 0 {
			t.Errorf("MarkPaid called %d times on a bad signature", store.markPaidCalls)
		}
		if store.order.PaymentStatus != orders.PaymentPending {
			t.Errorf("PaymentStatus = %q, want pending", store.order.PaymentStatus)
		}
	})

	t.Run("valid signature for an unknown order", func(t *testing.T) {
		r, store := newPaymentRouter(t)
		sig := hmacHex(testKeySecret, []byte("order_rzp_ghost|pay_1"))

		w := postVerify(r, gin.H{
			"razorpay_order_id":   "order_rzp_ghost",
			"razorpay_payment_id": "pay_1",
			"razorpay_signature":  sig,
		})
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if store.order.PaymentStatus != orders.PaymentPending {
			t.Errorf("PaymentStatus = %q, want pending", store.order.PaymentStatus)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		w := postVerify(r, gin.H{"razorpay_order_id": "order_rzp_1"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}

func TestWebhook(t *testing.T) {
	postWebhook := func(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set("x-razorpay-signature", signature)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	capturedBody := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"order_id":"order_rzp_1","payment_id":"pay_hook_1"}}}}`)

	t.Run("payment.captured marks the order paid", func(t *testing.T) {
		r, store := newPaymentRouter(t)
		sig := hmacHex(testWebhookSecret, capturedBody)

		w := postWebhook(r, capturedBody, sig)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
		if store.order.PaymentStatus != orders.PaymentPaid {
			t.Errorf("PaymentStatus = %q, want paid", store.order.PaymentStatus)
		}
		if store.order.RazorpayPaymentID != "pay_hook_1" {
			t.Errorf("RazorpayPaymentID = %q, want pay_hook_1", store.order.RazorpayPaymentID)
		}
		if store.order.RazorpaySignature != sig {
			t.Errorf("RazorpaySignature = %q, want the header signature", store.order.RazorpaySignature)
		}
	})

	t.Run("invalid signature causes zero mutations", func(t *testing.T) {
		r, store := newPaymentRouter(t)

		w := postWebhook(r, capturedBody, hmacHex("wrong_secret", capturedBody))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if resp := decodeResponse(t, w); resp.Message != "Invalid webhook signature" {
			t.Errorf("message = %q", resp.Message)
		}
		if store.markPaidCalls != 0 {
			t.Errorf("MarkPaid called %d times on a bad signature", store.markPaidCalls)
		}
	})

	t.Run("missing signature header", func(t *testing.T) {
		r, store := newPaymentRouter(t)

		w := postWebhook(r, capturedBody, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if store.markPaidCalls != 0 {
			t.Errorf("MarkPaid called despite missing signature")
		}
	})

	t.Run("duplicate delivery is acknowledged without rewriting", func(t *testing.T) {
		r, store := newPaymentRouter(t)
		sig := hmacHex(testWebhookSecret, capturedBody)

		if w := postWebhook(r, capturedBody, sig); w.Code != http.StatusOK {
			t.Fatalf("first delivery status = %d", w.Code)
		}
		if w := postWebhook(r, capturedBody, sig); w.Code != http.StatusOK {
			t.Fatalf("second delivery status = %d", w.Code)
		}
		if store.order.RazorpayPaymentID != "pay_hook_1" {
			t.Errorf("RazorpayPaymentID = %q, want pay_hook_1", store.order.RazorpayPaymentID)
		}
	})

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		r, store := newPaymentRouter(t)
		body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"order_id":"order_rzp_1","payment_id":"pay_1"}}}}`)

		w := postWebhook(r, body, hmacHex(testWebhookSecret, body))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if resp := decodeResponse(t, w); resp.Message != "Event type not handled" {
			t.Errorf("message = %q", resp.Message)
		}
		if store.order.PaymentStatus != orders.PaymentPending {
			t.Errorf("PaymentStatus = %q, want pending", store.order.PaymentStatus)
		}
	})

	t.Run("captured event for an unknown order", func(t *testing.T) {
		r, _ := newPaymentRouter(t)
		body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"order_id":"order_rzp_ghost","payment_id":"pay_1"}}}}`)

		w := postWebhook(r, body, hmacHex(testWebhookSecret, body))
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}
