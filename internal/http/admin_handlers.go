package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"allconnect/internal/backend"
	"allconnect/internal/domain"
	"allconnect/internal/repository"
)

// @Summary Operations overview
// @Description Service health, system metrics and order stats. Mock mode computes them locally.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} backend.Overview
// @Failure 403 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /admin/overview [get]
func (s *Server) overview(c *gin.Context) {
	var (
		ov  backend.Overview
		err error
	)
	if s.backend != nil {
		ov, err = s.backend.Overview(c.Request.Context())
	} else {
		ov, err = s.localOverview(c.Request.Context())
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (s *Server) localOverview(ctx context.Context) (backend.Overview, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return backend.Overview{}, err
	}
	products, err := s.catalog.List(ctx, repository.ProductFilter{})
	if err != nil {
		return backend.Overview{}, err
	}
	lowStock := 0
	for _, p := range products {
		if p.LowStock() {
			lowStock++
		}
	}
	storage := "UP"
	if s.storage != nil && s.storage.Ping(ctx) != nil {
		storage = "DOWN"
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return backend.Overview{
		Services: []backend.ServiceHealth{
			{Name: "storefront", Status: "UP", LastCheck: now},
			{Name: "storage", Status: storage, LastCheck: now},
		},
		Metrics: backend.SystemMetrics{ActiveConnections: s.sessions.Len()},
		Stats: backend.DashboardStats{
			TotalOrders:      stats.TotalOrders,
			TotalRevenue:     stats.Revenue,
			TotalProducts:    len(products),
			PendingOrders:    stats.ByStatus[domain.OrderStatusPending],
			LowStockProducts: lowStock,
		},
	}, nil
}

type productReq struct {
	SKU               string               `json:"sku"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Price             decimal.Decimal      `json:"price"`
	CompareAtPrice    decimal.Decimal      `json:"compare_at_price"`
	ProductType       domain.ProductType   `json:"product_type"`
	CategoryID        int64                `json:"category_id"`
	ProviderType      domain.ProviderType  `json:"provider_type"`
	ProviderProductID string               `json:"provider_product_id"`
	Stock             int64                `json:"stock"`
	LowStockThreshold int64                `json:"low_stock_threshold"`
	ImageURL          string               `json:"image_url"`
	Tags              []string             `json:"tags"`
	IsActive          *bool                `json:"is_active"`
	IsFeatured        bool                 `json:"is_featured"`
	Reservation       *domain.Reservation  `json:"reservation"`
	Subscription      *domain.Subscription `json:"subscription"`
}

// product builds the domain value; products are active unless said otherwise
func (r productReq) product(id int64) domain.Product {
	active := r.IsActive == nil || *r.IsActive
	return domain.Product{
		ID:                id,
		SKU:               r.SKU,
		Name:              r.Name,
		Description:       r.Description,
		Price:             r.Price,
		CompareAtPrice:    r.CompareAtPrice,
		ProductType:       r.ProductType,
		CategoryID:        r.CategoryID,
		ProviderType:      r.ProviderType,
		ProviderProductID: r.ProviderProductID,
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
		ImageURL:          r.ImageURL,
		Tags:              r.Tags,
		IsActive:          active,
		IsFeatured:        r.IsFeatured,
		Reservation:       r.Reservation,
		Subscription:      r.Subscription,
	}
}

// @Summary Create product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body productReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.catalog.Create(c.Request.Context(), req.product(0))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Update product
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req productReq
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.catalog.Update(c.Request.Context(), req.product(id))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /admin/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.catalog.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusReq struct {
	Status  domain.OrderStatus `json:"status" binding:"required"`
	Comment string             `json:"comment"`
}

// @Summary Move an order to a new status
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param input body statusReq true "Status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/orders/{id}/status [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if !bindJSON(c, &req) {
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), id, req.Status, req.Comment, c.GetString(ctxEmail))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
