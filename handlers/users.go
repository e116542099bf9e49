package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/smtp"
	"os"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/users"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/ctxmanage"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	var req users.UpdateUser
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Validation failed"))
		return
	}
	if req.Name == "" && req.Phone == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Nothing to update"))
		return
	}

	user, err := h.u.UpdateProfile(c.Request.Context(), claims.Subject, req)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "User not found"))
			return
		}
		slog.Error("error updating profile", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Profile update failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, gin.H{"user": user}, "Profile updated successfully"))
}

// DeleteAccount removes the caller's account and cart. Order history is kept.
func (h *Handler) DeleteAccount(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	if err := h.u.DeleteUser(c.Request.Context(), claims.Subject); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "User not found"))
			return
		}
		slog.Error("error deleting account", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Account deletion failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Account deleted successfully"))
}

// ForgotPassword issues a reset token and emails it. The response never
// reveals whether the email has an account.
func (h *Handler) ForgotPassword(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Email is required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Email is required"))
		return
	}

	const accepted = "If that email is registered, a reset link has been sent"

	token, err := h.u.CreatePasswordResetToken(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, accepted))
			return
		}
		slog.Error("error creating reset token", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Password reset failed"))
		return
	}

	go func() {
		if err := sendPasswordResetEmail(req.Email, token); err != nil {
			slog.Error("failed to send reset email", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
		}
	}()

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, accepted))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Token and password are required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Password must be at least 8 characters"))
		return
	}

	if err := h.u.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, users.ErrInvalidResetToken) {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				apiresponse.New(http.StatusBadRequest, nil, "Invalid or expired reset token"))
			return
		}
		slog.Error("error resetting password", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Password reset failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Password reset successfully"))
}

// sendPasswordResetEmail is a no-op unless SMTP_* is configured.
func sendPasswordResetEmail(to, token string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	if smtpHost == "" || smtpPort == "" {
		return nil
	}

	message := []byte("To: " + to + "\r\n" +
		"Subject: Password Reset\r\n" +
		"\r\n" +
		"Use this token to reset your password within 15 minutes: " + token + "\r\n")

	auth := smtp.PlainAuth("", username, password, smtpHost)
	return smtp.SendMail(smtpHost+":"+smtpPort, auth, "no-reply@restaurant-backend.local", []string{to}, message)
}
