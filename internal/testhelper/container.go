// Package testhelper starts the postgres and redis containers used by the
// service tests.
package testhelper

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Alturino/storefront/internal/infra"
)

type TeardownFunc func()

// MigrationScripts returns every up migration of the repository in the order
// golang-migrate would apply them.
func MigrationScripts(t *testing.T) []string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed locating testhelper package")
	}
	root := filepath.Join(filepath.Dir(file), "..", "..")
	scripts, err := filepath.Glob(filepath.Join(root, "migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("failed listing migrations with error: %s", err)
	}
	sort.Strings(scripts)
	return scripts
}

// Context returns a background context carrying a console logger.
func Context() context.Context {
	return zerolog.New(zerolog.NewConsoleWriter()).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger().
		WithContext(context.Background())
}

func RunPostgres(t *testing.T, c context.Context, seedPaths ...string) (*pgxpool.Pool, TeardownFunc) {
	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_PORT":     "5432",
			"POSTGRES_USER":     "postgres",
		}),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(append(MigrationScripts(t), seedPaths...)...),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}

	pgConnStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pgConfig, err := infra.PoolConfig(pgConnStr, 4, 1)
	if err != nil {
		t.Fatalf("failed building pool config with error: %s", err)
	}

	pool, err := pgxpool.NewWithConfig(c, pgConfig)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}

	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}

	return pool, func() {
		pool.Close()
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	}
}

func RunRedis(t *testing.T, c context.Context) (*redis.Client, TeardownFunc) {
	redisContainer, err := testRedis.Run(
		c,
		"redis:7.4.2-alpine3.21",
		testRedis.WithLogLevel(testRedis.LogLevelVerbose),
	)
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}

	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}

	redisClient := redis.NewClient(redisOpt)
	if err = infra.InstrumentCache(redisClient); err != nil {
		t.Fatalf("failed instrumenting redis client with error: %s", err)
	}
	if err = redisClient.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis client with error: %s", err)
	}

	return redisClient, func() {
		redisClient.Close()
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	}
}
