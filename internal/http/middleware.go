package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"allconnect/internal/backend"
	"allconnect/internal/domain"
	"allconnect/internal/i18n"
)

const (
	ctxCustomerID = "customer_id"
	ctxRole       = "role"
	ctxEmail      = "email"
)

// requestLogger replaces gin.Logger with one structured line per request.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int64("customer_id", c.GetInt64(ctxCustomerID)).
			Msg("request")
	}
}

// requireAuth resolves the bearer token to the customer's live session. The
// backend token of that session rides along in the request context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respond(c, http.StatusUnauthorized, i18n.MsgUnauthorized)
			return
		}
		sess, err := s.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(ctxCustomerID, sess.User.ID)
		c.Set(ctxRole, string(sess.User.Role))
		c.Set(ctxEmail, sess.User.Email)
		if sess.BackendToken != "" {
			c.Request = c.Request.WithContext(backend.WithToken(c.Request.Context(), sess.BackendToken))
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !domain.Role(c.GetString(ctxRole)).IsAdmin() {
			respond(c, http.StatusForbidden, i18n.MsgForbidden)
			return
		}
		c.Next()
	}
}

// placeOrderLimit throttles order placement per customer.
func (s *Server) placeOrderLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter(customerID(c)).Allow() {
			respond(c, http.StatusTooManyRequests, i18n.MsgTooManyRequests)
			return
		}
		c.Next()
	}
}

const limiterSweepEvery = time.Minute

func (s *Server) limiter(id int64) *rate.Limiter {
	if s.limit == rate.Inf {
		return s.unlimited
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if now := s.now(); now.Sub(s.swept) >= limiterSweepEvery {
		s.sweepLimiters(now)
		s.swept = now
	}
	l, ok := s.limiters[id]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[id] = l
	}
	return l
}

// sweepLimiters drops limiters whose bucket refilled; a fresh one behaves the same.
func (s *Server) sweepLimiters(now time.Time) {
	for id, l := range s.limiters {
		if l.TokensAt(now) >= float64(s.burst) {
			delete(s.limiters, id)
		}
	}
}

func customerID(c *gin.Context) int64 { return c.GetInt64(ctxCustomerID) }
