package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/api/metrics"
	"github.com/agentdex/platform/internal/api/middleware"
	"github.com/agentdex/platform/internal/core/domain"
)

// actor returns the identity injected by the Auth middleware. Its absence
// means the route was registered without the middleware; reject with 401.
func actor(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// pageParams reads limit and offset from the query string. Clamping is done by
// domain.NewPage.
func pageParams(c echo.Context) (domain.Page, error) {
	var limit, offset int
	err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("offset", &offset).
		BindError()
	if err != nil {
		return domain.Page{}, domain.Validationf("limit and offset must be integers")
	}
	return domain.NewPage(limit, offset), nil
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Validationf("invalid payload")
	}
	return c.Validate(req)
}

// observeTransition records a guarded mutation. Unknown client-supplied
// actions share one label value.
func observeTransition(entity, action string, known bool, err error) {
	if !known {
		action = "unknown"
	}
	metrics.TransitionsTotal.WithLabelValues(entity, action, metrics.Result(err)).Inc()
}
