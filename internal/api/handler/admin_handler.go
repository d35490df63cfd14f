package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/api/metrics"
	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// ProviderDefaults are the AI provider settings exposed to admins. The API key
// itself never leaves the process.
type ProviderDefaults struct {
	Provider         string
	Model            string
	BaseURL          string
	APIKeyConfigured bool
}

// AdminHandler serves the user management, upload and configuration routes
// under /admin.
type AdminHandler struct {
	users    ports.AdminUserService
	uploads  ports.UploadService
	provider ProviderDefaults
}

func NewAdminHandler(users ports.AdminUserService, uploads ports.UploadService, provider ProviderDefaults) *AdminHandler {
	return &AdminHandler{users: users, uploads: uploads, provider: provider}
}

// ListUsers handles GET /admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     CookieAuth
// @Param        role    query     string  false  "USER or ADMIN"
// @Param        status  query     string  false  "ACTIVE or BANNED"
// @Param        search  query     string  false  "Substring of email or nickname"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  adminUserListResponse
// @Failure      400     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	users, info, err := h.users.List(c.Request().Context(), ports.UserFilter{
		Role:   domain.Role(strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))),
		Status: domain.UserStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))),
		Search: c.QueryParam("search"),
	}, page)
	if err != nil {
		return err
	}

	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toAdminUserResponse(u))
	}
	return c.JSON(http.StatusOK, adminUserListResponse{Users: out, Pagination: info})
}

// TransitionUser handles PATCH /admin/users/:id.
//
// @Summary      Ban, unban, promote or demote a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      transitionRequest  true  "ban, unban, promote or demote"
// @Success      200   {object}  adminUserResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/users/{id} [patch]
func (h *AdminHandler) TransitionUser(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	user, err := h.users.Transition(c.Request().Context(), id, c.Param("id"), action)
	_, _, parseErr := domain.ParseUserAction(action)
	observeTransition("user", action, parseErr == nil, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminUserResponse(user))
}

// Upload handles POST /admin/upload.
//
// @Summary      Upload an image
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Security     CookieAuth
// @Param        file  formData  file  true  "jpeg, png, gif or webp, at most 5MB"
// @Success      201   {object}  uploadResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /admin/upload [post]
func (h *AdminHandler) Upload(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("unknown", "validation").Inc()
		return domain.Validationf("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	up, err := h.uploads.Upload(c.Request().Context(), id, ports.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("unknown", metrics.Result(err)).Inc()
		return err
	}

	metrics.UploadsTotal.WithLabelValues(up.ContentType, "ok").Inc()
	metrics.UploadBytes.Observe(float64(up.SizeBytes))
	return c.JSON(http.StatusCreated, toUploadResponse(up))
}

// ListUploads handles GET /admin/uploads.
//
// @Summary      List uploads
// @Tags         admin
// @Produce      json
// @Security     CookieAuth
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  uploadListResponse
// @Router       /admin/uploads [get]
func (h *AdminHandler) ListUploads(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	uploads, info, err := h.uploads.List(c.Request().Context(), page)
	if err != nil {
		return err
	}

	out := make([]uploadResponse, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, toUploadResponse(u))
	}
	return c.JSON(http.StatusOK, uploadListResponse{Uploads: out, Pagination: info})
}

// DefaultConfig handles GET /admin/default-config.
//
// @Summary      AI provider defaults
// @Tags         admin
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  defaultConfigResponse
// @Router       /admin/default-config [get]
func (h *AdminHandler) DefaultConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, defaultConfigResponse{
		Provider:         h.provider.Provider,
		Model:            h.provider.Model,
		BaseURL:          h.provider.BaseURL,
		APIKeyConfigured: h.provider.APIKeyConfigured,
	})
}
