package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/api/metrics"
	"github.com/agentdex/platform/internal/core/ports"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

func (h *AuthHandler) setSession(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Register creates a new user account and starts a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("register", metrics.Result(err)).Inc()
		return err
	}

	session, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Nickname: req.Nickname,
		Password: req.Password,
	})
	metrics.AuthEventsTotal.WithLabelValues("register", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	h.setSession(c, session.Token)
	return c.JSON(http.StatusCreated, userResponse{User: session.Identity})
}

// Login verifies credentials and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("login", metrics.Result(err)).Inc()
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.AuthEventsTotal.WithLabelValues("login", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	h.setSession(c, session.Token)
	return c.JSON(http.StatusOK, userResponse{User: session.Identity})
}

// Logout clears the session cookie. It never fails.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearSession(c)
	metrics.AuthEventsTotal.WithLabelValues("logout", "ok").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Me returns the current identity as stored now, not as issued in the token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user.Identity()})
}
