package cmd

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
)

func runMigration(c context.Context, direction string) error {
	logger := log.InitLogger(logFile).
		With().
		Str(log.KeyAppName, constants.AppMigration).
		Str(log.KeyTag, "main runMigration").
		Logger()

	cfg := config.InitConfig(logger.WithContext(c), configName)

	logger = logger.With().Str(log.KeyProcess, "opening database").Logger()
	logger.Info().Msg("opening database")
	db, err := sql.Open("postgres", cfg.Database.URL())
	if err != nil {
		err = fmt.Errorf("failed opening database with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer db.Close()
	if err = db.PingContext(c); err != nil {
		err = fmt.Errorf("failed pinging database with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("opened database")

	return infra.Migrate(logger.WithContext(c), db, cfg.Database.MigrationPath, direction)
}
