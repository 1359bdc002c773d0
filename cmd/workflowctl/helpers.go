package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	"github.com/garyjia/newsroom-workflow/internal/application/service"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/report"
	httpapi "github.com/garyjia/newsroom-workflow/internal/interfaces/http"
	"github.com/garyjia/newsroom-workflow/migrations"
	"github.com/garyjia/newsroom-workflow/pkg/database"
	"github.com/garyjia/newsroom-workflow/pkg/utils"
)

// store is an opened workflow database with the services built on it
type store struct {
	db       *database.DB
	workflow appworkflow.Service
	reports  service.ReportService
}

func (s *store) Close() error {
	return s.db.Close()
}

func newLogger() (*zap.Logger, error) {
	if !rootFlags.verbose {
		return zap.NewNop(), nil
	}
	return utils.NewLogger(utils.LoggerConfig{Level: "debug", OutputPath: "stderr", Format: "console"})
}

// openStore opens (and migrates) the database named by --db
func openStore() (*store, error) {
	if rootFlags.dbPath == "" {
		return nil, fmt.Errorf("--db is required (or set WORKFLOW_DB_PATH)")
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rolePolicy := policy.Default()
	if rootFlags.policyPath != "" {
		if rolePolicy, err = policy.Load(rootFlags.policyPath); err != nil {
			return nil, err
		}
	}

	db, err := database.New(database.Config{Path: rootFlags.dbPath, MaxOpenConns: 1}, logger)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	sqlDB := sqlite.NewDB(db.DB, logger)
	articles := repository.NewArticleRepository(sqlDB, logger)
	history := repository.NewHistoryRepository(sqlDB, logger)
	kv := utils.NewKVLogger(logger)

	return &store{
		db: db,
		workflow: appworkflow.NewService(articles, history, sqlDB,
			appworkflow.WithPolicy(rolePolicy),
			appworkflow.WithLogger(kv),
		),
		reports: service.NewReportService(articles, report.NewXLSXRenderer(httpapi.StatusLabel, logger), kv),
	}, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
