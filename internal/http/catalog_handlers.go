package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"allconnect/internal/domain"
	"allconnect/internal/i18n"
	"allconnect/internal/repository"
)

// @Summary List active products
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name contains"
// @Param type query string false "PHYSICAL, SERVICE or SUBSCRIPTION"
// @Param category_id query int false "Category"
// @Param featured query bool false "Featured only"
// @Param min_price query string false "Minimum price"
// @Param max_price query string false "Maximum price"
// @Success 200 {array} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f, ok := productFilter(c)
	if !ok {
		respond(c, http.StatusBadRequest, i18n.MsgInvalidInput)
		return
	}
	list, err := s.catalog.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func productFilter(c *gin.Context) (repository.ProductFilter, bool) {
	f := repository.ProductFilter{
		NameSubstring: strings.TrimSpace(c.Query("q")),
		Type:          domain.ProductType(strings.ToUpper(c.Query("type"))),
		ActiveOnly:    true,
	}
	if v := c.Query("category_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			return f, false
		}
		f.CategoryID = id
	}
	if v := c.Query("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, false
		}
		f.FeaturedOnly = b
	}
	for name, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, false
		}
		*dst = &d
	}
	return f, true
}

// @Summary Get an active product
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.catalog.GetActive(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.catalog.Categories(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Products recommended for the current customer
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Product
// @Router /recommendations [get]
func (s *Server) recommendations(c *gin.Context) {
	list, err := s.catalog.Recommendations(c.Request.Context(), customerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
