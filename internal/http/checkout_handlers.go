package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"allconnect/internal/checkout"
	"allconnect/internal/domain"
	"allconnect/internal/i18n"
	"allconnect/internal/session"
)

// @Summary Start checkout from the current cart
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} checkout.Snapshot
// @Failure 409 {object} map[string]string
// @Router /checkout [post]
func (s *Server) startCheckout(c *gin.Context) {
	s.checkoutTask(c, func(ctx context.Context, f *checkout.Flow) (checkout.Snapshot, error) {
		return f.Start(ctx)
	})
}

// @Summary Checkout state
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} checkout.Snapshot
// @Router /checkout [get]
func (s *Server) getCheckout(c *gin.Context) {
	s.checkoutTask(c, func(_ context.Context, f *checkout.Flow) (checkout.Snapshot, error) {
		return f.Snapshot(), nil
	})
}

// @Summary Submit the shipping address
// @Description Either saved_address_id or new_address.
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body checkout.ShippingInput true "Shipping"
// @Success 200 {object} checkout.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout/shipping [post]
func (s *Server) submitShipping(c *gin.Context) {
	var req checkout.ShippingInput
	if !bindJSON(c, &req) {
		return
	}
	s.checkoutTask(c, func(ctx context.Context, f *checkout.Flow) (checkout.Snapshot, error) {
		return f.SubmitShipping(ctx, req)
	})
}

// @Summary Submit the payment method
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body checkout.PaymentInput true "Payment"
// @Success 200 {object} checkout.Snapshot
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout/payment [post]
func (s *Server) submitPayment(c *gin.Context) {
	var req checkout.PaymentInput
	if !bindJSON(c, &req) {
		return
	}
	s.checkoutTask(c, func(ctx context.Context, f *checkout.Flow) (checkout.Snapshot, error) {
		return f.SubmitPayment(ctx, req)
	})
}

// @Summary Go back one step
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} checkout.Snapshot
// @Failure 409 {object} map[string]string
// @Router /checkout/back [post]
func (s *Server) checkoutBack(c *gin.Context) {
	s.checkoutTask(c, func(_ context.Context, f *checkout.Flow) (checkout.Snapshot, error) {
		return f.Back()
	})
}

type placeOrderResp struct {
	Order   *domain.Order `json:"order"`
	Warning string        `json:"warning,omitempty"`
}

// @Summary Place the order
// @Description The cart is cleared only after the order is created.
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 201 {object} placeOrderResp
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /checkout/place-order [post]
func (s *Server) placeOrder(c *gin.Context) {
	var order *domain.Order
	err := s.sessions.Do(c.Request.Context(), customerID(c), func(ctx context.Context, st *session.State) error {
		o, err := st.Checkout.PlaceOrder(ctx)
		order = o
		return err
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, placeOrderResp{Order: order})
	case errors.Is(err, checkout.ErrCartNotCleared) && order != nil:
		s.log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("order placed with stale cart")
		c.JSON(http.StatusCreated, placeOrderResp{
			Order:   order,
			Warning: i18n.T(i18n.Match(c.GetHeader("Accept-Language")), i18n.MsgCartNotCleared),
		})
	default:
		s.fail(c, err)
	}
}

// @Summary Abandon checkout
// @Tags checkout
// @Security BearerAuth
// @Success 204
// @Router /checkout [delete]
func (s *Server) resetCheckout(c *gin.Context) {
	err := s.sessions.Do(c.Request.Context(), customerID(c), func(_ context.Context, st *session.State) error {
		st.Checkout.Reset()
		return nil
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// checkoutTask runs fn against the customer's flow and answers with its snapshot.
func (s *Server) checkoutTask(c *gin.Context, fn func(ctx context.Context, f *checkout.Flow) (checkout.Snapshot, error)) {
	var snap checkout.Snapshot
	err := s.sessions.Do(c.Request.Context(), customerID(c), func(ctx context.Context, st *session.State) error {
		var err error
		snap, err = fn(ctx, st.Checkout)
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
