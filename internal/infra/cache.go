package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

var (
	cacheOnce sync.Once
	cache     *redis.Client
)

func cacheOptions(cfg config.Cache) *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	}
}

// InstrumentCache attaches otel tracing and metrics to client.
func InstrumentCache(client *redis.Client) error {
	attributes := redisotel.WithAttributes(semconv.DBSystemRedis)
	return errors.Join(
		redisotel.InstrumentTracing(client, attributes),
		redisotel.InstrumentMetrics(client, attributes),
	)
}

// NewCacheClient returns the process wide redis client backing the product
// cache, the token denylist, the login limiter and cart events.
func NewCacheClient(c context.Context, cfg config.Cache) *redis.Client {
	c, span := otel.Tracer.Start(c, "main NewCacheClient")
	defer span.End()

	cacheOnce.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main NewCacheClient").
			Str("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)).
			Logger()

		logger = logger.With().Str(log.KeyProcess, "instrumenting redis client").Logger()
		logger.Info().Msg("instrumenting redis client")
		client := redis.NewClient(cacheOptions(cfg))
		if err := InstrumentCache(client); err != nil {
			err = fmt.Errorf("failed instrumenting redis client with error=%w", err)
			otel.RecordError(err, span)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("instrumented redis client")

		logger = logger.With().Str(log.KeyProcess, "pinging redis").Logger()
		logger.Info().Msg("pinging redis")
		if err := client.Ping(c).Err(); err != nil {
			err = fmt.Errorf("failed pinging redis with error=%w", err)
			otel.RecordError(err, span)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("pinged redis")

		cache = client
	})
	return cache
}
