package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/auth"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/users"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/ctxmanage"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// requestClaims pulls the verified claims the authentication middleware put
// on the request context.
func requestClaims(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return claims, ok
}

func (h *Handler) Signup(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid request body"))
		return
	}
	if err := h.validate.Struct(newUser); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Validation failed"))
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			c.AbortWithStatusJSON(http.StatusConflict,
				apiresponse.New(http.StatusConflict, nil, "User with this email already exists"))
			return
		}
		slog.Error("error inserting user", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Signup failed"))
		return
	}

	c.JSON(http.StatusCreated,
		apiresponse.New(http.StatusCreated, gin.H{"user": user}, "User registered successfully"))
}

func (h *Handler) Login(c *gin.Context) {
	h.login(c, false)
}

// AdminLogin behaves like Login but rejects non-admin accounts.
func (h *Handler) AdminLogin(c *gin.Context) {
	h.login(c, true)
}

func (h *Handler) login(c *gin.Context, adminOnly bool) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Email and password are required."))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Email and password are required."))
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apiresponse.New(http.StatusUnauthorized, nil, "Invalid email or password."))
			return
		}
		slog.Error("login failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Login failed"))
		return
	}

	if adminOnly && user.Role != auth.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden,
			apiresponse.New(http.StatusForbidden, nil, "Access denied. Admins only."))
		return
	}

	accessToken, err := h.authKeys.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		slog.Error("generating access token failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Error generating tokens"))
		return
	}
	refreshToken, err := h.authKeys.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		slog.Error("generating refresh token failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Error generating tokens"))
		return
	}

	if err := h.u.UpdateRefreshToken(c.Request.Context(), user.ID, refreshToken); err != nil {
		slog.Error("storing refresh token failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Login failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	}, "User logged in successfully."))
}

// RefreshToken exchanges a valid refresh token for a new access token,
// rotating the stored refresh token.
func (h *Handler) RefreshToken(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Refresh token is required"))
		return
	}

	claims, err := h.authKeys.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden,
			apiresponse.New(http.StatusForbidden, nil, "Invalid or expired refresh token"))
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil || user.RefreshToken != req.RefreshToken {
		c.AbortWithStatusJSON(http.StatusForbidden,
			apiresponse.New(http.StatusForbidden, nil, "Invalid refresh token"))
		return
	}

	accessToken, err := h.authKeys.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		slog.Error("generating access token failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Error generating tokens"))
		return
	}
	refreshToken, err := h.authKeys.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		slog.Error("generating refresh token failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Error generating tokens"))
		return
	}
	if err := h.u.UpdateRefreshToken(c.Request.Context(), user.ID, refreshToken); err != nil {
		slog.Error("rotating refresh token failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Token refresh failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	}, "Token refreshed successfully"))
}

func (h *Handler) Logout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	if err := h.u.UpdateRefreshToken(c.Request.Context(), claims.Subject, ""); err != nil {
		slog.Error("clearing refresh token failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Logout failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "User logged out successfully"))
}

func (h *Handler) Me(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "User not found"))
			return
		}
		slog.Error("fetching user failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to fetch user"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, gin.H{"user": user}, "User fetched successfully"))
}
