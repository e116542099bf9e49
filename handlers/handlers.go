package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/auth"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/cart"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/menu"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/orders"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/stores/kafka"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/users"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/middleware"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/apiresponse"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// UserStore is the slice of the users service the handlers need. *users.Conf
// implements it.
type UserStore interface {
	InsertUser(ctx context.Context, nu users.NewUser) (users.User, error)
	Authenticate(ctx context.Context, email, password string) (users.User, error)
	GetUserByID(ctx context.Context, id string) (users.User, error)
	UpdateRefreshToken(ctx context.Context, userID, token string) error
	UpdateProfile(ctx context.Context, userID string, up users.UpdateUser) (users.User, error)
	DeleteUser(ctx context.Context, userID string) error
	CreatePasswordResetToken(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
}

type Handler struct {
	u        UserStore
	menu     *menu.Conf
	cart     *cart.Conf
	o        *orders.Conf
	k        *kafka.Conf
	authKeys *auth.Keys
	validate *validator.Validate
}

func NewHandler(u UserStore, m *menu.Conf, c *cart.Conf, o *orders.Conf,
	k *kafka.Conf, authKeys *auth.Keys) *Handler {
	return &Handler{
		u:        u,
		menu:     m,
		cart:     c,
		o:        o,
		k:        k,
		authKeys: authKeys,
		validate: validator.New(),
	}
}

func API(u UserStore, menuConf *menu.Conf, cartConf *cart.Conf, o *orders.Conf,
	k *kafka.Conf, authKeys *auth.Keys) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(authKeys)
	if err != nil {
		panic(err)
	}
	h := NewHandler(u, menuConf, cartConf, o, k, authKeys)

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", HealthCheck)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Signup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/admin/login", h.AdminLogin)
		authGroup.POST("/refresh", h.RefreshToken)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
		authGroup.POST("/logout", m.Authentication(), h.Logout)
	}

	userGroup := r.Group("/api/user")
	{
		userGroup.Use(m.Authentication())
		userGroup.GET("/me", h.Me)
		userGroup.PUT("/me", h.UpdateProfile)
		userGroup.DELETE("/me", h.DeleteAccount)
	}

	menuGroup := r.Group("/api/menu")
	{
		menuGroup.GET("/", h.ListMenuItems)
		menuGroup.GET("/:id", h.GetMenuItem)
		menuGroup.Use(m.Authentication())
		menuGroup.POST("/", m.Authorize(h.CreateMenuItem, auth.RoleAdmin))
		menuGroup.PUT("/:id", m.Authorize(h.UpdateMenuItem, auth.RoleAdmin))
		menuGroup.DELETE("/:id", m.Authorize(h.DeleteMenuItem, auth.RoleAdmin))
	}

	cartGroup := r.Group("/api/cart")
	{
		cartGroup.Use(m.Authentication())
		cartGroup.POST("/", h.AddToCart)
		cartGroup.GET("/", h.GetCartItems)
		cartGroup.PUT("/:cartItemId", h.UpdateCartItem)
		cartGroup.DELETE("/clear", h.ClearCart)
		cartGroup.DELETE("/:cartItemId", h.RemoveCartItem)
	}

	orderGroup := r.Group("/api/order")
	{
		orderGroup.Use(m.Authentication())
		orderGroup.POST("/", h.CreateOrder)
		orderGroup.GET("/myOrders", h.GetUserOrders)
		orderGroup.GET("/", m.Authorize(h.GetAllOrders, auth.RoleAdmin))
		orderGroup.PUT("/:id/status", m.Authorize(h.UpdateOrderStatus, auth.RoleAdmin))
	}

	paymentGroup := r.Group("/api/payments")
	{
		// The webhook authenticates itself with the provider signature, not
		// a bearer token.
		paymentGroup.POST("/webhook", h.Webhook)
		paymentGroup.POST("/verify", m.Authentication(), h.VerifyPayment)
	}

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, apiresponse.New(http.StatusOK, gin.H{"status": "ok"}, "pong"))
}
