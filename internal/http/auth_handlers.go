package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"allconnect/internal/auth"
	"allconnect/internal/domain"
)

// authResponse leaves the backend token out of the client payload
type authResponse struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func toAuthResponse(sess *auth.Session) authResponse {
	return authResponse{Token: sess.Token, User: sess.User, ExpiresAt: sess.ExpiresAt}
}

// @Summary Register a customer
// @Tags auth
// @Accept json
// @Produce json
// @Param input body auth.RegisterInput true "Registration"
// @Success 201 {object} authResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req auth.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.Register(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAuthResponse(sess))
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if !bindJSON(c, &req) {
		return
	}
	sess, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuthResponse(sess))
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (s *Server) me(c *gin.Context) {
	u, err := s.auth.Me(c.Request.Context(), customerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Log out
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context(), customerID(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
