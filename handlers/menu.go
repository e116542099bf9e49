package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/ctxmanage"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func (h *Handler) CreateMenuItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId),
			slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Request body too large."))
		return
	}

	var newItem menu.NewItem
	if err := c.ShouldBindJSON(&newItem); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid request body"))
		return
	}
	if msg, ok := h.validateMenuItem(newItem); !ok {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, msg))
		c.AbortWithStatusJSON(http.StatusBadRequest, apiresponse.New(http.StatusBadRequest, nil, msg))
		return
	}

	item, err := h.menu.InsertItem(c.Request.Context(), newItem)
	if err != nil {
		slog.Error("error inserting menu item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Menu item creation failed"))
		return
	}

	c.JSON(http.StatusCreated, apiresponse.New(http.StatusCreated, item, "Menu item added successfully"))
}

func (h *Handler) ListMenuItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	items, err := h.menu.ListItems(c.Request.Context())
	if err != nil {
		slog.Error("error listing menu items", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to fetch menu items"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, items, "Menu items fetched successfully"))
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	itemID := c.Param("id")

	item, err := h.menu.GetItemByID(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Menu item not found"))
			return
		}
		slog.Error("error fetching menu item", slog.String(logkey.TraceID, traceId),
			slog.String("MenuItemID", itemID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Failed to fetch menu item"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, item, "Item found"))
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	itemID := c.Param("id")

	var updated menu.NewItem
	if err := c.ShouldBindJSON(&updated); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apiresponse.New(http.StatusBadRequest, nil, "Invalid JSON payload"))
		return
	}
	if msg, ok := h.validateMenuItem(updated); !ok {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, msg))
		c.AbortWithStatusJSON(http.StatusBadRequest, apiresponse.New(http.StatusBadRequest, nil, msg))
		return
	}

	item, err := h.menu.UpdateItem(c.Request.Context(), itemID, updated)
	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Menu item not found"))
			return
		}
		slog.Error("error updating menu item", slog.String(logkey.TraceID, traceId),
			slog.String("MenuItemID", itemID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Menu item update failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, item, "Menu item updated successfully"))
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	itemID := c.Param("id")

	if err := h.menu.DeleteItem(c.Request.Context(), itemID); err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound,
				apiresponse.New(http.StatusNotFound, nil, "Menu item not found"))
			return
		}
		slog.Error("error deleting menu item", slog.String(logkey.TraceID, traceId),
			slog.String("MenuItemID", itemID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apiresponse.New(http.StatusInternalServerError, nil, "Menu item deletion failed"))
		return
	}

	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, nil, "Menu item deleted successfully"))
}

func (h *Handler) validateMenuItem(ni menu.NewItem) (string, bool) {
	err := h.validate.Struct(ni)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			vErr := vErrs[0]
			switch vErr.Tag() {
			case "required":
				return vErr.Field() + " value missing", false
			case "min":
				return vErr.Field() + " value is less than " + vErr.Param(), false
			}
		}
		return "Validation failed", false
	}
	if !menu.ValidCategory(ni.Category) {
		return "Category must be one of " + strings.Join(menu.Categories, ", "), false
	}
	return "", true
}
