package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	"allconnect/internal/auth"
	"allconnect/internal/backend"
	"allconnect/internal/i18n"
	"allconnect/internal/repository"
	"allconnect/internal/service"
	"allconnect/internal/session"
)

// Deps are the collaborators of the HTTP API. Backend is nil in mock mode.
type Deps struct {
	Auth      *auth.Service
	Sessions  *session.Registry
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	Customers *service.CustomerService
	Storage   repository.Storage
	Backend   *backend.Client
	Log       zerolog.Logger

	PlaceOrderRPS   float64
	PlaceOrderBurst int
}

type Server struct {
	engine    *gin.Engine
	auth      *auth.Service
	sessions  *session.Registry
	catalog   *service.CatalogService
	orders    *service.OrderService
	customers *service.CustomerService
	storage   repository.Storage
	backend   *backend.Client
	log       zerolog.Logger

	limit     rate.Limit
	burst     int
	unlimited *rate.Limiter
	now       func() time.Time
	mu        sync.Mutex
	swept     time.Time
	limiters  map[int64]*rate.Limiter
}

func NewServer(d Deps) *Server {
	r := gin.New()
	log := d.Log.With().Str("component", "http").Logger()
	r.Use(requestLogger(log), gin.Recovery())
	s := &Server{
		engine:    r,
		auth:      d.Auth,
		sessions:  d.Sessions,
		catalog:   d.Catalog,
		orders:    d.Orders,
		customers: d.Customers,
		storage:   d.Storage,
		backend:   d.Backend,
		log:       log,
		limit:     rate.Limit(d.PlaceOrderRPS),
		burst:     d.PlaceOrderBurst,
		now:       time.Now,
		limiters:  make(map[int64]*rate.Limiter),
	}
	if s.limit <= 0 {
		s.limit = rate.Inf
	}
	if s.burst < 1 {
		s.burst = 1
	}
	s.unlimited = rate.NewLimiter(rate.Inf, s.burst)
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/healthz", s.healthz)
		v1.POST("/auth/register", s.register)
		v1.POST("/auth/login", s.login)

		authed := v1.Group("", s.requireAuth())
		authed.GET("/auth/me", s.me)
		authed.POST("/auth/logout", s.logout)

		authed.GET("/products", s.listProducts)
		authed.GET("/products/:id", s.getProduct)
		authed.GET("/categories", s.listCategories)
		authed.GET("/recommendations", s.recommendations)

		cart := authed.Group("/cart")
		cart.GET("", s.getCart)
		cart.POST("/items", s.addCartItem)
		cart.PATCH("/items/:productId", s.updateCartItem)
		cart.DELETE("/items/:productId", s.removeCartItem)
		cart.DELETE("", s.clearCart)

		checkout := authed.Group("/checkout")
		checkout.POST("", s.startCheckout)
		checkout.GET("", s.getCheckout)
		checkout.POST("/shipping", s.submitShipping)
		checkout.POST("/payment", s.submitPayment)
		checkout.POST("/back", s.checkoutBack)
		checkout.POST("/place-order", s.placeOrderLimit(), s.placeOrder)
		checkout.DELETE("", s.resetCheckout)

		authed.GET("/profile", s.getProfile)
		authed.PUT("/profile", s.updateProfile)

		addresses := authed.Group("/addresses")
		addresses.GET("", s.listAddresses)
		addresses.POST("", s.createAddress)
		addresses.DELETE("/:id", s.deleteAddress)
		addresses.PUT("/:id/default", s.setDefaultAddress)

		orders := authed.Group("/orders")
		orders.GET("", s.listOrders)
		orders.GET("/:id", s.getOrder)
		orders.GET("/number/:number", s.getOrderByNumber)
		orders.POST("/:id/cancel", s.cancelOrder)
		orders.GET("/:id/tracking", s.trackOrder)

		admin := authed.Group("/admin", requireAdmin())
		admin.GET("/overview", s.overview)
		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)
		admin.PUT("/orders/:id/status", s.updateOrderStatus)
	}
}

// @Summary Liveness and storage check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (s *Server) healthz(c *gin.Context) {
	if s.storage != nil {
		if err := s.storage.Ping(c.Request.Context()); err != nil {
			s.log.Warn().Err(err).Msg("storage ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// pathID parses the named path parameter and answers 400 itself when it is not a positive id.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := parseID(c.Param(name))
	if err != nil || id <= 0 {
		respond(c, http.StatusBadRequest, i18n.MsgInvalidInput)
		return 0, false
	}
	return id, true
}

// bindJSON answers 400 itself when the body does not decode.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respond(c, http.StatusBadRequest, i18n.MsgInvalidInput)
		return false
	}
	return true
}
