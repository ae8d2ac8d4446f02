package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/controller"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/notification"
	"github.com/Alturino/storefront/internal/payment"
	"github.com/Alturino/storefront/internal/repository"
)

func AttachCart(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	pool *pgxpool.Pool,
	cacheClient *redis.Client,
	productCache *cache.ProductCache,
	gateway payment.Gateway,
	notifier notification.Notifier,
	currency string,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppCartService).
		Str(log.KeyTag, "main AttachCart").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing cartService").Logger()
	logger.Info().Msg("initializing cartService")
	queries := repository.New(pool)
	events := service.NewCartEvents(cacheClient)
	cartService := service.NewCartService(pool, queries, events, productCache)
	checkoutService := service.NewCheckoutService(
		pool,
		queries,
		cartService,
		events,
		gateway,
		notifier,
		currency,
	)
	logger.Info().Msg("initialized cartService")

	logger = logger.With().Str(log.KeyProcess, "attaching cartController").Logger()
	logger.Info().Msg("attaching cartController")
	controller.AttachCartController(
		logger.WithContext(c),
		router,
		authenticate,
		cartService,
		checkoutService,
		events,
	)
	logger.Info().Msg("attached cartController")
}
