package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/auth"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/ctxmanage"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Authentication verifies the bearer token and stores the claims in the
// request context under auth.ClaimsKey.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		authHeader := c.Request.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			slog.Error("missing or malformed authorization header", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
			return
		}

		claims, err := m.keys.ParseAccessToken(parts[1])
		if err != nil {
			slog.Error("token verification failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apiresponse.New(http.StatusUnauthorized, nil, "Invalid or expired token"))
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize wraps a handler so only the listed roles can reach it.
func (m *Mid) Authorize(next gin.HandlerFunc, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				apiresponse.New(http.StatusUnauthorized, nil, "Unauthorized"))
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				next(c)
				return
			}
		}

		slog.Error("role not permitted", slog.String(logkey.TraceID, traceId),
			slog.String("Role", claims.Role))
		c.AbortWithStatusJSON(http.StatusForbidden,
			apiresponse.New(http.StatusForbidden, nil, "You are not authorized to access this route"))
	}
}
