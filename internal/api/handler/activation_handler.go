package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/api/metrics"
	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

type ActivationHandler struct {
	service ports.ActivationService
}

func NewActivationHandler(service ports.ActivationService) *ActivationHandler {
	return &ActivationHandler{service: service}
}

// Redeem handles POST /activation-codes/redeem.
//
// @Summary      Redeem an activation code
// @Tags         activation
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      redeemRequest  true  "Code"
// @Success      200   {object}  redeemResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /activation-codes/redeem [post]
func (h *ActivationHandler) Redeem(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req redeemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.service.Redeem(c.Request().Context(), id, req.Code)
	observeTransition("activation_code", "redeem", true, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, redeemResponse{
		Code:      toActivationCodeResponse(r.Code),
		UserAgent: toOwnedAgentResponse(ports.OwnedAgent{Ownership: r.Ownership}),
	})
}

// ListByStatus handles GET /activation-codes/status/:status.
//
// @Summary      List activation codes by status
// @Tags         activation
// @Produce      json
// @Security     CookieAuth
// @Param        status  path      string  true   "UNUSED, ACTIVATED or EXPIRED"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  activationCodeListResponse
// @Failure      400     {object}  map[string]string
// @Router       /activation-codes/status/{status} [get]
func (h *ActivationHandler) ListByStatus(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	codes, info, err := h.service.ListByStatus(c.Request().Context(), c.Param("status"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activationCodeListResponse{Codes: toActivationCodeResponses(codes), Pagination: info})
}

// Generate handles POST /admin/activation-codes.
//
// @Summary      Generate activation codes for an agent
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      generateCodesRequest  true  "Batch"
// @Success      201   {object}  generatedCodesResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /admin/activation-codes [post]
func (h *ActivationHandler) Generate(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req generateCodesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.GenerateCodesInput{AgentID: req.AgentID, Count: req.Count}
	if raw := strings.TrimSpace(req.ExpiresAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.Validationf("expiresAt must be an RFC 3339 timestamp")
		}
		in.ExpiresAt = &t
	}

	codes, err := h.service.Generate(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	metrics.ActivationCodesGeneratedTotal.Add(float64(len(codes)))
	return c.JSON(http.StatusCreated, generatedCodesResponse{Codes: toActivationCodeResponses(codes)})
}
