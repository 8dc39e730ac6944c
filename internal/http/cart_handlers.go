package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"allconnect/internal/cart"
	"allconnect/internal/session"
)

// @Summary Current cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} cart.Summary
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	s.cartTask(c, http.StatusOK, nil)
}

type addItemReq struct {
	ProductID       int64  `json:"product_id" binding:"required"`
	Quantity        int64  `json:"quantity"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
}

// @Summary Add a product to the cart
// @Description Physical products merge into one line; services and subscriptions get a line per add.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addItemReq true "Item"
// @Success 201 {object} cart.Summary
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addItemReq
	if !bindJSON(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		s.fail(c, cart.ErrInvalidQuantity)
		return
	}
	p, err := s.catalog.GetActive(c.Request.Context(), req.ProductID)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.cartTask(c, http.StatusCreated, func(ctx context.Context, st *session.State) error {
		_, err := st.Cart.AddItem(ctx, *p, req.Quantity, req.ReservationDate, req.ReservationTime)
		return err
	})
}

type updateItemReq struct {
	Quantity int64 `json:"quantity"`
}

// @Summary Set the quantity of a product
// @Description A quantity of zero or less removes the product.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productId path int true "Product ID"
// @Param input body updateItemReq true "Quantity"
// @Success 200 {object} cart.Summary
// @Router /cart/items/{productId} [patch]
func (s *Server) updateCartItem(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req updateItemReq
	if !bindJSON(c, &req) {
		return
	}
	s.cartTask(c, http.StatusOK, func(ctx context.Context, st *session.State) error {
		return st.Cart.UpdateQuantity(ctx, id, req.Quantity)
	})
}

// @Summary Remove a product from the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productId path int true "Product ID"
// @Success 200 {object} cart.Summary
// @Router /cart/items/{productId} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	s.cartTask(c, http.StatusOK, func(ctx context.Context, st *session.State) error {
		return st.Cart.RemoveItem(ctx, id)
	})
}

// @Summary Empty the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} cart.Summary
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	s.cartTask(c, http.StatusOK, func(ctx context.Context, st *session.State) error {
		return st.Cart.ClearCart(ctx)
	})
}

// cartTask runs fn on the customer's session and answers with the resulting cart.
func (s *Server) cartTask(c *gin.Context, status int, fn session.Task) {
	var sum cart.Summary
	err := s.sessions.Do(c.Request.Context(), customerID(c), func(ctx context.Context, st *session.State) error {
		if fn != nil {
			if err := fn(ctx, st); err != nil {
				return err
			}
		}
		sum = st.Cart.Summary()
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(status, sum)
}
