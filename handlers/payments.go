package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/smtp"
	"os"
	"time"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/gateway"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/orders"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/stores/kafka"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/ctxmanage"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// webhookEvent is the slice of the provider's event envelope we care about.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				OrderID   string `json:"order_id"`
				PaymentID string `json:"payment_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyPayment handles the client-reported confirmation: the browser posts
// the refs and signature Razorpay handed it after checkout.
func (h *Handler) VerifyPayment(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid payment data"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid payment data"))
		return
	}

	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keySecret == "" {
		slog.Error("razorpay key secret not configured", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Payment verification failed."))
		return
	}

	// A bad signature must leave the ledger untouched.
	if !gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID,
		req.RazorpaySignature, keySecret) {
		slog.Error("payment signature mismatch", slog.String(logkey.TraceID, traceId),
			slog.String("RazorpayOrderID", req.RazorpayOrderID))
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Payment verification failed!"))
		return
	}

	order, err := h.o.MarkPaid(c.Request.Context(), req.RazorpayOrderID,
		req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Order not found!"))
			return
		}
		slog.Error("error marking order paid", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Payment verification failed."))
		return
	}

	// Creation-time clearing normally emptied the cart already; deleting the
	// row here is defensive cleanup.
	if err := h.o.DeleteCart(c.Request.Context(), order.UserID); err != nil {
		slog.Error("error deleting cart after payment", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, order.UserID), slog.String(logkey.ERROR, err.Error()))
	}

	h.publishOrderPaid(traceId, order)

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK,
		gin.H{"orderId": order.ID, "status": order.PaymentStatus}, "Payment Verified"))
}

// Webhook handles the provider's asynchronous callback. The signature in
// x-razorpay-signature covers the raw body and uses the webhook secret,
// which is configured separately from the key secret.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	const maxBodyBytes = int64(65536)

	razorpaySignature := c.GetHeader("x-razorpay-signature")
	if razorpaySignature == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Missing Razorpay signature"))
		return
	}

	webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		slog.Error("razorpay webhook secret not configured", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Server error processing webhook"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		slog.Error("failed to read webhook body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid webhook body"))
		return
	}

	if !gateway.VerifyWebhookSignature(body, razorpaySignature, webhookSecret) {
		slog.Error("webhook signature mismatch", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid webhook signature"))
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Error("failed to unmarshal webhook event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid webhook body"))
		return
	}

	switch event.Event {
	case "payment.captured":
		entity := event.Payload.Payment.Entity
		order, err := h.o.MarkPaid(c.Request.Context(), entity.OrderID, entity.PaymentID, razorpaySignature)
		if err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				slog.Error("webhook order not found", slog.String(logkey.TraceID, traceId),
					slog.String("RazorpayOrderID", entity.OrderID))
				c.AbortWithStatusJSON(http.StatusNotFound,
					apiresponse.New(http.StatusNotFound, nil, "Order not found"))
				return
			}
			slog.Error("webhook: error marking order paid", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				apiresponse.New(http.StatusInternalServerError, nil, "Server error processing webhook"))
			return
		}

		slog.Info("payment captured", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String("RazorpayPaymentID", entity.PaymentID))
		h.publishOrderPaid(traceId, order)

		c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Webhook processed successfully"))

	default:
		// Unknown event types are acknowledged so the provider stops
		// retrying them.
		slog.Info("unhandled webhook event type", slog.String(logkey.TraceID, traceId),
			slog.String("EventType", event.Event))
		c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Event type not handled"))
	}
}

// publishOrderPaid emits one kafka event per line item and fires the
// confirmation email. Failures are logged; payment confirmation never fails
// because of them.
func (h *Handler) publishOrderPaid(traceId string, order orders.Order) {
	go func() {
		for _, item := range order.Items {
			jsonData, err := json.Marshal(kafka.OrderPaidEvent{
				OrderId:    order.ID,
				MenuItemId: item.MenuItemID,
				Quantity:   item.Quantity,
				CreatedAt:  time.Now().UTC(),
			})
			if err != nil {
				slog.Error("failed to marshal OrderPaidEvent", slog.String(logkey.TraceID, traceId),
					slog.String(logkey.ERROR, err.Error()))
				return
			}
			if err := h.k.ProduceMessage(kafka.TopicOrderPaid, []byte(order.ID), jsonData); err != nil {
				slog.Error("failed to produce order-paid event", slog.String(logkey.TraceID, traceId),
					slog.String(logkey.ERROR, err.Error()))
				return
			}
		}

		if err := sendOrderConfirmationEmail(order); err != nil {
			slog.Error("failed to send confirmation email", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
		}
	}()
}

// sendOrderConfirmationEmail is a no-op unless SMTP_* is configured.
func sendOrderConfirmationEmail(order orders.Order) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	to := os.Getenv("ORDER_NOTIFICATION_EMAIL")
	if smtpHost == "" || smtpPort == "" || to == "" {
		return nil
	}

	subject := "Order Confirmation"
	body := fmt.Sprintf("Thank you for your order! Your order ID is %s. We are processing it now.", order.ID)
	from := "no-reply@restaurant-backend.local"
	message := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", username, password, smtpHost)
	if err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{to}, message); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
