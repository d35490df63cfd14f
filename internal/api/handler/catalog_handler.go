package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/api/metrics"
	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// CatalogHandler serves the public agent and series catalog and the caller's
// owned agents.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func observeCatalog(query string, err error) {
	metrics.CatalogQueriesTotal.WithLabelValues(query, metrics.Result(err)).Inc()
}

// ListAgents handles GET /agents.
//
// @Summary      List public agents
// @Tags         catalog
// @Produce      json
// @Param        rarity    query     string  false  "COMMON, RARE, EPIC or LEGENDARY"
// @Param        seriesId  query     string  false  "Series id"
// @Param        search    query     string  false  "Case-insensitive substring of name or description"
// @Param        sort      query     string  false  "newest (default), price_asc or price_desc"
// @Param        limit     query     int     false  "Page size, 1..100 (default 20)"
// @Param        offset    query     int     false  "Offset"
// @Success      200       {object}  agentListResponse
// @Failure      400       {object}  map[string]string
// @Router       /agents [get]
func (h *CatalogHandler) ListAgents(c echo.Context) (err error) {
	defer func() { observeCatalog("agents", err) }()

	page, err := pageParams(c)
	if err != nil {
		return err
	}
	sort, err := domain.ParseAgentSort(c.QueryParam("sort"))
	if err != nil {
		return err
	}

	views, info, err := h.service.ListAgents(c.Request().Context(), ports.AgentFilter{
		Rarity:   domain.Rarity(strings.ToUpper(strings.TrimSpace(c.QueryParam("rarity")))),
		SeriesID: c.QueryParam("seriesId"),
		Keyword:  c.QueryParam("search"),
		Sort:     sort,
	}, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, agentListResponse{Agents: toAgentResponses(views), Pagination: info})
}

// GetAgent handles GET /agents/:slug.
//
// @Summary      Get a public agent by slug
// @Tags         catalog
// @Produce      json
// @Param        slug  path      string  true  "Agent slug"
// @Success      200   {object}  agentResponse
// @Failure      404   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /agents/{slug} [get]
func (h *CatalogHandler) GetAgent(c echo.Context) (err error) {
	defer func() { observeCatalog("agent", err) }()

	view, err := h.service.GetAgent(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAgentResponse(view))
}

// ListSeries handles GET /shop/series.
//
// @Summary      List public series with their agents
// @Tags         catalog
// @Produce      json
// @Param        limit   query     int  false  "Page size, 1..100 (default 20)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  seriesListResponse
// @Router       /shop/series [get]
func (h *CatalogHandler) ListSeries(c echo.Context) (err error) {
	defer func() { observeCatalog("series", err) }()

	page, err := pageParams(c)
	if err != nil {
		return err
	}

	views, info, err := h.service.ListSeries(c.Request().Context(), page)
	if err != nil {
		return err
	}

	out := make([]seriesResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toSeriesResponse(v))
	}
	return c.JSON(http.StatusOK, seriesListResponse{Series: out, Pagination: info})
}

// GetSeries handles GET /shop/series/:slug.
//
// @Summary      Get a public series by slug
// @Tags         catalog
// @Produce      json
// @Param        slug  path      string  true  "Series slug"
// @Success      200   {object}  seriesResponse
// @Failure      404   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /shop/series/{slug} [get]
func (h *CatalogHandler) GetSeries(c echo.Context) (err error) {
	defer func() { observeCatalog("series_detail", err) }()

	view, err := h.service.GetSeries(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSeriesResponse(view))
}

// ListOwned handles GET /user-agents.
//
// @Summary      List the caller's agents
// @Tags         catalog
// @Produce      json
// @Security     CookieAuth
// @Param        limit   query     int  false  "Page size, 1..100 (default 20)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  ownedAgentListResponse
// @Failure      401     {object}  map[string]string
// @Router       /user-agents [get]
func (h *CatalogHandler) ListOwned(c echo.Context) (err error) {
	defer func() { observeCatalog("owned", err) }()

	id, err := actor(c)
	if err != nil {
		return err
	}
	page, err := pageParams(c)
	if err != nil {
		return err
	}

	owned, info, err := h.service.ListOwned(c.Request().Context(), id.UserID, page)
	if err != nil {
		return err
	}

	out := make([]ownedAgentResponse, 0, len(owned))
	for _, o := range owned {
		out = append(out, toOwnedAgentResponse(o))
	}
	return c.JSON(http.StatusOK, ownedAgentListResponse{UserAgents: out, Pagination: info})
}
