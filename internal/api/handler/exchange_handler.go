package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/core/ports"
)

type ExchangeHandler struct {
	service ports.ExchangeService
}

func NewExchangeHandler(service ports.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{service: service}
}

// Create handles POST /exchange.
//
// @Summary      List an owned agent for exchange
// @Tags         exchange
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      createExchangeRequest  true  "Exchange listing"
// @Success      201   {object}  exchangeResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /exchange [post]
func (h *ExchangeHandler) Create(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req createExchangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	x, err := h.service.Create(c.Request().Context(), id, ports.CreateExchangeInput{
		OfferedAgentID: req.OfferedAgentID,
		WantedAgentID:  req.WantedAgentID,
		Note:           req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toExchangeResponse(x))
}

// ListMine handles GET /exchange.
//
// @Summary      List the caller's exchanges
// @Tags         exchange
// @Produce      json
// @Security     CookieAuth
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  exchangeListResponse
// @Router       /exchange [get]
func (h *ExchangeHandler) ListMine(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	list, info, err := h.service.ListMine(c.Request().Context(), id, page)
	if err != nil {
		return err
	}

	out := make([]exchangeResponse, 0, len(list))
	for _, x := range list {
		out = append(out, toExchangeResponse(x))
	}
	return c.JSON(http.StatusOK, exchangeListResponse{Exchanges: out, Pagination: info})
}

// Propose handles POST /exchange/:id/proposals.
//
// @Summary      Offer an agent against an exchange
// @Tags         exchange
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string          true  "Exchange id"
// @Param        body  body      proposeRequest  true  "Offered agent"
// @Success      201   {object}  exchangeResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /exchange/{id}/proposals [post]
func (h *ExchangeHandler) Propose(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req proposeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	x, err := h.service.Propose(c.Request().Context(), id, c.Param("id"), req.OfferedAgentID)
	observeTransition("exchange", "propose", true, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toExchangeResponse(x))
}

// Cancel handles DELETE /exchange/cancel.
//
// @Summary      Withdraw a pending exchange with no pending proposals
// @Tags         exchange
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      cancelExchangeRequest  true  "Exchange to withdraw"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /exchange/cancel [delete]
func (h *ExchangeHandler) Cancel(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req cancelExchangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.service.Cancel(c.Request().Context(), id, req.ExchangeID)
	observeTransition("exchange", "cancel", true, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "exchange cancelled"})
}
