package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /orders.
//
// @Summary      Place an order for an agent
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      createOrderRequest  true  "Agent to buy"
// @Success      201   {object}  orderResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.service.Create(c.Request().Context(), id, req.AgentSlug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

// ListMine handles GET /orders.
//
// @Summary      List the caller's orders
// @Tags         orders
// @Produce      json
// @Security     CookieAuth
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  orderListResponse
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	orders, info, err := h.service.ListMine(c.Request().Context(), id, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderListResponse{Orders: toOrderResponses(orders), Pagination: info})
}

// AdminList handles GET /admin/orders.
//
// @Summary      List orders
// @Tags         admin
// @Produce      json
// @Security     CookieAuth
// @Param        status  query     string  false  "PENDING, PAID, CANCELLED or REFUNDED"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  orderListResponse
// @Failure      400     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	orders, info, err := h.service.List(c.Request().Context(), c.QueryParam("status"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderListResponse{Orders: toOrderResponses(orders), Pagination: info})
}

// AdminTransition handles PATCH /admin/orders/:id.
//
// @Summary      Pay, cancel or refund an order
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      string             true  "Order id"
// @Param        body  body      transitionRequest  true  "pay, cancel or refund"
// @Success      200   {object}  orderResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/orders/{id} [patch]
func (h *OrderHandler) AdminTransition(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	order, err := h.service.Transition(c.Request().Context(), id, c.Param("id"), action)
	_, perr := domain.OrderTransitions.ParseAction(action)
	observeTransition("order", action, perr == nil, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}
