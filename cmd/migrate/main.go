package main

import (
	"flag"
	"fmt"
	"os"

	"telegram-dating-onboarding/internal/config"
	pg "telegram-dating-onboarding/internal/infra/db/postgres"
	"telegram-dating-onboarding/internal/infra/logging"
)

// migrate applies or rolls back the schema.
//
//	migrate -config config.yaml up
//	migrate -config config.yaml -steps 1 down
//	migrate -config config.yaml version
func main() {
	configPath := flag.String("config", "config.yaml", "path to config yaml")
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Parse()

	cfg, err := config.Load(*configPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)
	if cfg.Database.URL == "" {
		logger.Fatal().Msg("database.url is required")
	}

	cmd := flag.Arg(0)
	switch cmd {
	case "up", "":
		if err := pg.RunMigrations(cfg.Database.URL); err != nil {
			logger.Fatal().Err(err).Msg("migrate up failed")
		}
		logger.Info().Msg("migrations applied")
	case "down":
		if err := pg.RollbackMigrations(cfg.Database.URL, *steps); err != nil {
			logger.Fatal().Err(err).Msg("migrate down failed")
		}
		logger.Info().Int("steps", *steps).Msg("migrations rolled back")
	case "version":
		v, dirty, err := pg.MigrationVersion(cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("read version failed")
		}
		logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
	default:
		logger.Fatal().Str("command", cmd).Msg("unknown command, want up|down|version")
	}
}
