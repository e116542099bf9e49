package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/gateway"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/orders"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/ctxmanage"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type updateOrderStatusRequest struct {
	Status           string `json:"status" validate:"required"`
	EstimatedMinutes *int   `json:"estimatedMinutes" validate:"omitempty,min=1"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	created, err := h.o.CreateOrder(c.Request.Context(), claims.Subject)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyCart):
			c.AbortWithStatusJSON(http.StatusBadRequest,
				apiresponse.New(http.StatusBadRequest, nil, "Cart is empty, cannot create order"))
		case errors.Is(err, orders.ErrMenuItemNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Menu item in cart no longer exists"))
		case errors.Is(err, gateway.ErrGatewayUnavailable):
			slog.Error("payment gateway unavailable", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				apiresponse.New(http.StatusInternalServerError, nil, "Failed to create Razorpay order"))
		default:
			slog.Error("error creating order", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				apiresponse.New(http.StatusInternalServerError, nil, "Error creating order"))
		}
		return
	}

	c.JSON(http.StatusCreated,
		apiresponse.New(http.StatusCreated, created, "Order created, proceed to payment"))
}

func (h *Handler) GetUserOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	userOrders, err := h.o.UserOrders(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching user orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Error fetching user orders"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, userOrders, "User orders fetched successfully"))
}

func (h *Handler) GetAllOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	allOrders, err := h.o.AllOrders(c.Request.Context(), claims.Role)
	if err != nil {
		if errors.Is(err, orders.ErrAdminOnly) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				apiresponse.New(http.StatusForbidden, nil, "You are not authorized to access this route"))
			return
		}
		slog.Error("error fetching all orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to fetch orders"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, allOrders, "Orders fetched successfully"))
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}
	orderID := c.Param("id")

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid status"))
		return
	}

	order, err := h.o.UpdateStatus(c.Request.Context(), claims.Role, orderID, req.Status, req.EstimatedMinutes)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrAdminOnly):
			c.AbortWithStatusJSON(http.StatusForbidden,
				apiresponse.New(http.StatusForbidden, nil, "You are not authorized to access this route"))
		case errors.Is(err, orders.ErrInvalidStatus):
			c.AbortWithStatusJSON(http.StatusBadRequest,
				apiresponse.New(http.StatusBadRequest, nil, "Invalid status"))
		case errors.Is(err, orders.ErrOrderNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Order not found"))
		default:
			slog.Error("error updating order status", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				apiresponse.New(http.StatusInternalServerError, nil, "Failed to update order status"))
		}
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, order, "Order status updated successfully"))
}
