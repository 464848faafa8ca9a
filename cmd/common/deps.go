// Package common provides shared dependency wiring for CLI commands.
package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/crawlkit/crawljob/internal/config"
	"github.com/crawlkit/crawljob/internal/database"
	"github.com/crawlkit/crawljob/internal/ledger"
	"github.com/crawlkit/crawljob/internal/logger"
	"github.com/crawlkit/crawljob/internal/report"
	"github.com/crawlkit/crawljob/internal/staging"
)

// Deps bundles the wired services a command needs.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Ledger  *ledger.Service
	Staging *staging.Service
	Report  *report.Service
}

// Setup loads configuration, connects to the database and wires the
// services. The returned cleanup closes the connection and flushes logs.
func Setup() (*Deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	runRepo := database.NewRunRepository(db)
	recordRepo := database.NewRecordRepository(db)

	deps := &Deps{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Ledger:  ledger.NewService(runRepo, log),
		Staging: staging.NewService(recordRepo, log),
		Report:  report.NewService(runRepo, recordRepo),
	}

	cleanup := func() {
		_ = db.Close()
		_ = log.Sync()
	}

	return deps, cleanup, nil
}
