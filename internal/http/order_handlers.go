package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"allconnect/internal/domain"
)

// @Summary List my orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param type query string false "Only orders containing this product type"
// @Success 200 {array} domain.Order
// @Failure 400 {object} map[string]string
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	filter := domain.ProductType(strings.ToUpper(c.Query("type")))
	list, err := s.orders.ListOrders(c.Request.Context(), customerID(c), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := s.orders.GetOrder(c.Request.Context(), customerID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Get order by number
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param number path string true "Order number"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Router /orders/number/{number} [get]
func (s *Server) getOrderByNumber(c *gin.Context) {
	o, err := s.orders.GetByNumber(c.Request.Context(), customerID(c), c.Param("number"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := s.orders.CancelOrder(c.Request.Context(), customerID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Tracking information
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Tracking
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/tracking [get]
func (s *Server) trackOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := s.orders.Tracking(c.Request.Context(), customerID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Address book

// @Summary List my addresses
// @Tags addresses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Address
// @Router /addresses [get]
func (s *Server) listAddresses(c *gin.Context) {
	list, err := s.customers.Addresses(c.Request.Context(), customerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type addressReq struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

// @Summary Save an address
// @Tags addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addressReq true "Address"
// @Success 201 {object} domain.Address
// @Failure 400 {object} map[string]string
// @Router /addresses [post]
func (s *Server) createAddress(c *gin.Context) {
	var req addressReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := s.customers.CreateAddress(c.Request.Context(), customerID(c), domain.Address{
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// @Summary Delete an address
// @Tags addresses
// @Security BearerAuth
// @Param id path int true "Address ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /addresses/{id} [delete]
func (s *Server) deleteAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.customers.DeleteAddress(c.Request.Context(), customerID(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Make an address the default
// @Tags addresses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Address ID"
// @Success 200 {object} domain.Address
// @Failure 404 {object} map[string]string
// @Router /addresses/{id}/default [put]
func (s *Server) setDefaultAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := s.customers.SetDefaultAddress(c.Request.Context(), customerID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Profile

// @Summary My profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 404 {object} map[string]string
// @Router /profile [get]
func (s *Server) getProfile(c *gin.Context) {
	u, err := s.customers.Profile(c.Request.Context(), customerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Update my profile
// @Description Only the fields present in the body change.
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body domain.ProfileUpdate true "Profile fields"
// @Success 200 {object} domain.User
// @Failure 400 {object} map[string]string
// @Router /profile [put]
func (s *Server) updateProfile(c *gin.Context) {
	var req domain.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	u, err := s.customers.UpdateProfile(c.Request.Context(), customerID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
