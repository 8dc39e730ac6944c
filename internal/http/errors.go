package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"allconnect/internal/auth"
	"allconnect/internal/backend"
	"allconnect/internal/cart"
	"allconnect/internal/checkout"
	"allconnect/internal/domain"
	"allconnect/internal/i18n"
	"allconnect/internal/repository"
	"allconnect/internal/service"
	"allconnect/internal/session"
)

// mapErrorToStatus picks the HTTP status and message key for err. Checkout
// errors are matched before repository ones because they wrap lookups.
func mapErrorToStatus(err error) (int, string) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, i18n.MsgInvalidCredentials
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, i18n.MsgEmailTaken
	case errors.Is(err, auth.ErrInvalidRegistration):
		return http.StatusBadRequest, i18n.MsgInvalidInput
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, i18n.MsgUnauthorized

	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, i18n.MsgInvalidQuantity
	case errors.Is(err, cart.ErrInvalidProduct):
		return http.StatusBadRequest, i18n.MsgInvalidProduct

	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, i18n.MsgEmptyCart
	case errors.Is(err, checkout.ErrNotStarted):
		return http.StatusConflict, i18n.MsgNotStarted
	case errors.Is(err, checkout.ErrWrongStep):
		return http.StatusConflict, i18n.MsgWrongStep
	case errors.Is(err, checkout.ErrInvalidAddress):
		return http.StatusBadRequest, i18n.MsgInvalidAddress
	case errors.Is(err, checkout.ErrInvalidPayment):
		return http.StatusBadRequest, i18n.MsgInvalidPayment
	case errors.Is(err, checkout.ErrAlreadyProcessing):
		return http.StatusConflict, i18n.MsgProcessing
	case errors.Is(err, checkout.ErrOrderFailed):
		return http.StatusUnprocessableEntity, i18n.MsgOrderFailed
	case errors.Is(err, checkout.ErrCartNotCleared):
		return http.StatusInternalServerError, i18n.MsgCartNotCleared

	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidProduct), errors.Is(err, domain.ErrMissingReservation),
		errors.Is(err, domain.ErrMissingSubscription):
		return http.StatusBadRequest, i18n.MsgInvalidInput
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, i18n.MsgInvalidState
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, i18n.MsgNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, i18n.MsgConflict

	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable, i18n.MsgBackendUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, i18n.MsgBackendUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, i18n.MsgBackendUnavailable
	default:
		return http.StatusInternalServerError, i18n.MsgInternal
	}
}

// respond writes the localized error body for key.
func respond(c *gin.Context, status int, key string) {
	tag := i18n.Match(c.GetHeader("Accept-Language"))
	c.AbortWithStatusJSON(status, gin.H{"error": i18n.T(tag, key)})
}

func (s *Server) fail(c *gin.Context, err error) {
	status, key := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	respond(c, status, key)
}
