package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks a client-reported payment confirmation. The
// provider signs HMAC-SHA256 over "orderID|paymentID" with the key secret.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	payload := orderID + "|" + paymentID
	return verify([]byte(payload), signature, secret)
}

// VerifyWebhookSignature checks the x-razorpay-signature header, computed
// over the raw request body with the webhook secret. The webhook secret is
// configured separately from the per-transaction key secret.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	return verify(body, signature, secret)
}

func verify(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
