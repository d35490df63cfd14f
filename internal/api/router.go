package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/agentdex/platform/internal/api/handler"
	"github.com/agentdex/platform/internal/api/middleware"
	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
	"github.com/agentdex/platform/internal/core/service"

	_ "github.com/agentdex/platform/docs"
)

// multipart framing on top of the file itself
const uploadOverheadBytes = 64 << 10

// Services are the constructed application services the router exposes.
type Services struct {
	Auth       ports.AuthService
	Authorizer ports.Authorizer
	Catalog    ports.CatalogService
	Exchange   ports.ExchangeService
	Activation ports.ActivationService
	Orders     ports.OrderService
	AdminUsers ports.AdminUserService
	Uploads    ports.UploadService
}

// RouterConfig carries the HTTP-facing settings.
type RouterConfig struct {
	CookieName   string
	SecureCookie bool
	// ActivationStatusPublic leaves GET /activation-codes/status/:status
	// without a session guard.
	ActivationStatusPublic bool
	MaxUploadBytes         int64
	Provider               handler.ProviderDefaults
	Readiness              []handler.DependencyCheck
	// Registry receives the HTTP request metrics and backs /metrics.
	// Defaults to the process-wide registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig, svc Services, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if cfg.Registry != nil {
		registerer, gatherer = cfg.Registry, cfg.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "agentdex",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth, handler.CookieConfig{
		Name:   cfg.CookieName,
		MaxAge: service.SessionTTL,
		Secure: cfg.SecureCookie,
	})
	catalogHandler := handler.NewCatalogHandler(svc.Catalog)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	exchangeHandler := handler.NewExchangeHandler(svc.Exchange)
	activationHandler := handler.NewActivationHandler(svc.Activation)
	adminHandler := handler.NewAdminHandler(svc.AdminUsers, svc.Uploads, cfg.Provider)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(cfg.Readiness...)

	session := middleware.Auth(svc.Authorizer, cfg.CookieName)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Public ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)

	e.GET("/agents", catalogHandler.ListAgents)
	e.GET("/agents/:slug", catalogHandler.GetAgent)
	e.GET("/shop/series", catalogHandler.ListSeries)
	e.GET("/shop/series/:slug", catalogHandler.GetSeries)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session ---
	e.GET("/auth/me", authHandler.Me, session)
	e.GET("/user-agents", catalogHandler.ListOwned, session)

	e.POST("/orders", orderHandler.Create, session)
	e.GET("/orders", orderHandler.ListMine, session)

	e.POST("/exchange", exchangeHandler.Create, session)
	e.GET("/exchange", exchangeHandler.ListMine, session)
	e.POST("/exchange/:id/proposals", exchangeHandler.Propose, session)
	e.DELETE("/exchange/cancel", exchangeHandler.Cancel, session)

	e.POST("/activation-codes/redeem", activationHandler.Redeem, session)
	if cfg.ActivationStatusPublic {
		e.GET("/activation-codes/status/:status", activationHandler.ListByStatus)
	} else {
		e.GET("/activation-codes/status/:status", activationHandler.ListByStatus, session, adminOnly)
	}

	// --- Admin ---
	admin := e.Group("/admin", session, adminOnly)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PATCH("/users/:id", adminHandler.TransitionUser)
	admin.GET("/orders", orderHandler.AdminList)
	admin.PATCH("/orders/:id", orderHandler.AdminTransition)
	admin.POST("/upload", adminHandler.Upload, echomiddleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))
	admin.GET("/uploads", adminHandler.ListUploads)
	admin.GET("/default-config", adminHandler.DefaultConfig)
	admin.POST("/activation-codes", activationHandler.Generate)

	return e
}

// bodyLimit renders the upload cap in the form BodyLimit expects.
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxUploadBytes
	}
	return fmt.Sprintf("%dB", maxUpload+uploadOverheadBytes)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
