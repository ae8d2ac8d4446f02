package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	maxConnLifetime = 15 * time.Minute
	maxConnIdleTime = 5 * time.Minute
)

func registerUUID(_ context.Context, conn *pgx.Conn) error {
	pgxuuid.Register(conn.TypeMap())
	return nil
}

// PoolConfig parses connString into a pool config with uuid codecs and query
// tracing attached. Sizes of zero keep the pgx defaults.
func PoolConfig(connString string, maxConns, minConns int32) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed parsing pool config with error=%w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	if minConns > 0 {
		poolConfig.MinConns = minConns
	}
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.AfterConnect = registerUUID
	poolConfig.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	return poolConfig, nil
}

func NewDatabaseClient(c context.Context, dbConfig config.Database) *pgxpool.Pool {
	c, span := otel.Tracer.Start(c, "main NewDatabaseClient")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewDatabaseClient").
		Str("db_host", dbConfig.Host).
		Str("db_name", dbConfig.Name).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "building pool config").Logger()
	logger.Info().Msg("building pool config")
	poolConfig, err := PoolConfig(dbConfig.URL(), dbConfig.MaxConnections, dbConfig.MinConnections)
	if err != nil {
		otel.RecordError(err, span)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().
		Int32("max_conns", poolConfig.MaxConns).
		Int32("min_conns", poolConfig.MinConns).
		Msg("built pool config")

	logger = logger.With().Str(log.KeyProcess, "opening pool").Logger()
	logger.Info().Msg("opening pool")
	pool, err := pgxpool.NewWithConfig(c, poolConfig)
	if err != nil {
		err = fmt.Errorf("failed opening pool with error=%w", err)
		otel.RecordError(err, span)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	if err = pool.Ping(c); err != nil {
		pool.Close()
		err = fmt.Errorf("failed reaching database with error=%w", err)
		otel.RecordError(err, span)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("opened pool")

	return pool
}
