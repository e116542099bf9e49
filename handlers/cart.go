package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/cart"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/ctxmanage"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	Items []cart.NewLine `json:"items" validate:"required,min=1,dive"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}
	userId := claims.Subject

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid items format"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Item ID and quantity must be valid"))
		return
	}

	// Every referenced menu item must exist before anything is added.
	for _, line := range req.Items {
		if _, err := h.menu.GetItemByID(c.Request.Context(), line.MenuItemID); err != nil {
			if errors.Is(err, menu.ErrItemNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound,
					apiresponse.New(http.StatusNotFound, nil, "Menu item with ID "+line.MenuItemID+" not found"))
				return
			}
			slog.Error("error resolving menu item", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				apiresponse.New(http.StatusInternalServerError, nil, "Failed to add items to cart"))
			return
		}
	}

	if err := h.cart.AddItems(c.Request.Context(), userId, req.Items); err != nil {
		slog.Error("error adding items to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, userId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to add items to cart"))
		return
	}

	c.JSON(http.StatusCreated, apiresponse.New(http.StatusCreated, nil, "Item(s) added to cart successfully"))
}

func (h *Handler) GetCartItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	lines, err := h.cart.GetResolved(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart items", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to fetch cart items"))
		return
	}

	message := "Cart items fetched successfully"
	if len(lines) == 0 {
		message = "Cart is empty"
	}
	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, gin.H{"items": lines}, message))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}
	cartItemID := c.Param("cartItemId")

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Quantity must be greater than zero"))
		return
	}

	err := h.cart.UpdateItemQuantity(c.Request.Context(), claims.Subject, cartItemID, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Cart item not found"))
			return
		}
		slog.Error("error updating cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to update cart item"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Cart item updated successfully"))
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}
	cartItemID := c.Param("cartItemId")

	err := h.cart.RemoveItem(c.Request.Context(), claims.Subject, cartItemID)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Item not found in cart"))
			return
		}
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to remove cart item"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Cart item removed successfully"))
}

func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := requestClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
		return
	}

	if err := h.cart.Clear(c.Request.Context(), claims.Subject); err != nil {
		slog.Error("error clearing cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to clear cart"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Cart cleared successfully"))
}
