package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/auth"
	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

// CookieConfig controls the session cookie the handler sets.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	service auth.Service
	cookie  CookieConfig
}

func NewAuthHandler(svc auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		auth.HandleAuthError(c, err)
		return
	}

	h.setCookie(c, res.Token, int(h.cookie.TTL.Seconds()))
	response.Success(c, http.StatusOK, auth.Me{
		LoggedIn: true,
		IsAdmin:  res.Session.IsAdmin,
		Username: res.Session.Username,
	})
}

// Logout handles POST /auth/logout. The cookie is cleared even when the
// session was already gone.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			auth.HandleAuthError(c, err)
			return
		}
	}

	h.setCookie(c, "", -1)
	response.Success(c, http.StatusOK, auth.Me{LoggedIn: false})
}

// Me handles GET /auth/me. It never answers 401, the body says whether the
// caller is logged in.
func (h *AuthHandler) Me(c *gin.Context) {
	token, err := c.Cookie(h.cookie.Name)
	if err != nil {
		response.Success(c, http.StatusOK, auth.Me{})
		return
	}

	sess, err := h.service.Authenticate(c.Request.Context(), token)
	if err != nil {
		response.Success(c, http.StatusOK, auth.Me{})
		return
	}

	response.Success(c, http.StatusOK, auth.Me{
		LoggedIn: true,
		IsAdmin:  sess.IsAdmin,
		Username: sess.Username,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
