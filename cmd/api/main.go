// @title                       agentdex API
// @version                     1.0
// @description                 Agent catalog, ownership, exchange and activation API.
// @BasePath                    /
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        auth-token
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentdex/platform/internal/api"
	"github.com/agentdex/platform/internal/api/handler"
	"github.com/agentdex/platform/internal/core/service"
	"github.com/agentdex/platform/internal/infrastructure/config"
	mongodb "github.com/agentdex/platform/internal/infrastructure/db/mongo"
	redisdb "github.com/agentdex/platform/internal/infrastructure/db/redis"
	"github.com/agentdex/platform/internal/infrastructure/jobs"
	"github.com/agentdex/platform/internal/infrastructure/storage"
	"github.com/agentdex/platform/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "agentdex-api",
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.UsesDevSecret() {
		log.Warn().Msg("JWT_SECRET not set, signing sessions with the development secret")
	}
	if cfg.ActivationCodesPublicStatus {
		log.Warn().Msg("GET /activation-codes/status/{status} is public (ACTIVATION_CODES_PUBLIC_STATUS=true)")
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongo")
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure mongo indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(storage.Config{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		UseSSL:        cfg.Storage.UseSSL,
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Msg("ensure bucket failed")
	}

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	agents := mongodb.NewAgentRepository(db)
	series := mongodb.NewSeriesRepository(db)
	userAgents := mongodb.NewUserAgentRepository(db)
	orders := mongodb.NewOrderRepository(db)
	exchanges := mongodb.NewExchangeRepository(db)
	codes := mongodb.NewActivationCodeRepository(db)
	uploads := mongodb.NewUploadRepository(db)

	// --- Services ---
	codec, err := service.NewJWTSessionCodec(cfg.Session.JWTSecret, cfg.Session.Issuer, cfg.Session.Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init session codec")
	}
	throttle := redisdb.NewLoginThrottle(rdb, cfg.Session.LoginMaxFailures, cfg.Session.LoginWindow)
	hasher := service.NewBcryptHasher(cfg.Session.BcryptCost)
	activation := service.NewActivationService(codes, agents, userAgents, logger.Component("activation"))

	svc := api.Services{
		Auth:       service.NewAuthService(users, hasher, codec, throttle, logger.Component("auth")),
		Authorizer: service.NewAuthorizer(codec, users, logger.Component("authorizer")),
		Catalog:    service.NewCatalogService(agents, series, userAgents, logger.Component("catalog")),
		Exchange:   service.NewExchangeService(exchanges, agents, userAgents, logger.Component("exchange")),
		Activation: activation,
		Orders:     service.NewOrderService(orders, agents, userAgents, logger.Component("orders")),
		AdminUsers: service.NewAdminUserService(users, logger.Component("admin_users")),
		Uploads:    service.NewUploadService(uploads, objectStore, cfg.Upload.MaxBytes, logger.Component("uploads")),
	}

	e := api.NewRouter(api.RouterConfig{
		CookieName:             cfg.Session.CookieName,
		SecureCookie:           cfg.IsProduction(),
		ActivationStatusPublic: cfg.ActivationCodesPublicStatus,
		MaxUploadBytes:         cfg.Upload.MaxBytes,
		Provider: handler.ProviderDefaults{
			Provider:         cfg.Provider.Name,
			Model:            cfg.Provider.Model,
			BaseURL:          cfg.Provider.BaseURL,
			APIKeyConfigured: cfg.Provider.APIKey != "",
		},
		Readiness: []handler.DependencyCheck{
			handler.MongoCheck(db),
			handler.RedisCheck(rdb),
			{Name: "minio", Ping: objectStore.Ping},
		},
	}, svc, log)

	scheduler := jobs.NewScheduler(activation, cfg.Jobs.ExpireCodesSpec, logger.Component("jobs"))
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("scheduler start failed")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(log, e, scheduler, mongoClient, rdb)
}

func waitForShutdown(log zerolog.Logger, e *echo.Echo, scheduler *jobs.Scheduler, mongoClient *mongo.Client, rdb *goredis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		if err := e.Close(); err != nil {
			log.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop(shutdownCtx)

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect error")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close error")
	}

	log.Info().Msg("server exited cleanly")
}
