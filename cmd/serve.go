package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	cartCmd "github.com/Alturino/storefront/cart/cmd"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/notification"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/payment"
	orderCmd "github.com/Alturino/storefront/order/cmd"
	productCmd "github.com/Alturino/storefront/product/cmd"
	userCmd "github.com/Alturino/storefront/user/cmd"
)

const (
	serverTimeout   = 45 * time.Second
	shutdownTimeout = 15 * time.Second
)

func runServer(c context.Context) {
	logger := log.InitLogger(logFile).
		With().
		Str(log.KeyAppName, constants.AppName).
		Str(log.KeyTag, "main runServer").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	cfg := config.InitConfig(logger.WithContext(c), configName)
	logger = logger.Level(log.LevelForEnv(cfg.Application.Env))
	logger.Info().Msg("initialized config")

	otelShutdowns := []otel.ShutdownFunc{}
	if cfg.Otel.Enabled {
		logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
		logger.Info().Msg("initializing otel sdk")
		shutdowns, err := otel.InitOtelSdk(
			logger.WithContext(c),
			constants.AppName,
			cfg.Application.Env,
			cfg.Otel.Endpoint(),
		)
		otelShutdowns = shutdowns
		if err != nil {
			err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		} else {
			logger.Info().Msg("initialized otel sdk")
		}
	}
	defer func() {
		logger := logger.With().Str(log.KeyProcess, "shutting down otel").Logger()
		logger.Info().Msg("shutting down otel")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otel.ShutdownOtel(logger.WithContext(shutdownCtx), otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	pool := infra.NewDatabaseClient(logger.WithContext(c), cfg.Database)
	defer func() {
		logger.Info().Msg("shutting down database")
		pool.Close()
		logger.Info().Msg("shutdown database")
	}()
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "migrating database").Logger()
	logger.Info().Msg("migrating database")
	err := infra.Migrate(
		logger.WithContext(c),
		stdlib.OpenDBFromPool(pool),
		cfg.Database.MigrationPath,
		infra.MigrationUp,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("migrated database")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	cacheClient := infra.NewCacheClient(logger.WithContext(c), cfg.Cache)
	defer func() {
		logger.Info().Msg("shutting down cache")
		if err := cacheClient.Close(); err != nil {
			err = fmt.Errorf("failed shutting down cache with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing authentication").Logger()
	logger.Info().Msg("initializing authentication")
	sessions := auth.NewSessionStore(
		cfg.Application.SecretKey,
		cfg.Application.SessionName,
		cfg.Application.TokenTTL,
		cfg.Application.Env == "production",
	)
	authenticator := auth.NewAuthenticator(cfg.Application.SecretKey, sessions, auth.NewDenylist(cacheClient))
	authenticate := middleware.Auth(authenticator)
	limiter := auth.NewLoginLimiter(cacheClient)
	logger.Info().Msg("initialized authentication")

	logger = logger.With().Str(log.KeyProcess, "initializing payment gateway").Logger()
	logger.Info().Msg("initializing payment gateway")
	gateway, err := payment.NewGateway(cfg.Payment)
	if err != nil {
		logger.Fatal().Err(err).Msg(err.Error())
	}
	notifier := notification.NewNotifier(cfg.Mail)
	logger.Info().Str(log.KeyPaymentProvider, cfg.Payment.Provider).Msg("initialized payment gateway")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(otelmux.Middleware(constants.AppName), middleware.Logging, middleware.RecoverPanic)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	appCtx := logger.WithContext(c)
	productCache := cache.NewProductCache(cacheClient)
	userCmd.AttachUser(appCtx, router, authenticate, pool, limiter, authenticator, cfg.Application)
	productCmd.AttachProduct(appCtx, router, authenticate, pool, productCache)
	cartCmd.AttachCart(
		appCtx,
		router,
		authenticate,
		pool,
		cacheClient,
		productCache,
		gateway,
		notifier,
		cfg.Payment.Currency,
	)
	orderCmd.AttachOrder(appCtx, router, authenticate, pool, productCache)
	logger.Info().Msg("initialized router")

	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return appCtx },
		Handler:      otelhttp.NewHandler(router, constants.AppName),
		ReadTimeout:  serverTimeout,
		WriteTimeout: serverTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("error=%w occured while server is running", err)
		}
		close(serverErr)
	}()

	select {
	case <-c.Done():
		logger.Info().Msg("received interuption signal shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg(err.Error())
		}
	}

	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}
