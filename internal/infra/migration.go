package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	MigrationUp   = "up"
	MigrationDown = "down"
)

// Migrate applies the migrations found at migrationPath (a golang-migrate
// source url such as file://migrations) in the given direction.
func Migrate(c context.Context, db *sql.DB, migrationPath string, direction string) error {
	c, span := otel.Tracer.Start(c, "main Migrate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main Migrate").
		Str(log.KeyMigrationPath, migrationPath).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing db driver").Logger()
	logger.Info().Msg("initializing db driver")
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		err = fmt.Errorf("failed creating postgres driver to do migration with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized db driver")

	logger = logger.With().Str(log.KeyProcess, "initializing migration").Logger()
	logger.Info().Msg("initializing migration")
	migration, err := migrate.NewWithDatabaseInstance(migrationPath, "postgres", driver)
	if err != nil {
		err = fmt.Errorf("failed initializing migration with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized migration")

	logger = logger.With().Str(log.KeyProcess, "migration "+direction).Logger()
	logger.Info().Msgf("migration %s", direction)
	switch direction {
	case MigrationUp:
		err = migration.Up()
	case MigrationDown:
		err = migration.Down()
	default:
		err = fmt.Errorf("unknown migration direction=%s", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		err = fmt.Errorf("failed migration %s with error=%w", direction, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msgf("successed migration %s", direction)

	return nil
}
