package container

import (
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/dispatcher"
	"github.com/garyjia/newsroom-workflow/internal/application/policy"
	"github.com/garyjia/newsroom-workflow/internal/application/port"
	"github.com/garyjia/newsroom-workflow/internal/application/service"
	appworkflow "github.com/garyjia/newsroom-workflow/internal/application/workflow"
	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
	infraLark "github.com/garyjia/newsroom-workflow/internal/infrastructure/external/lark"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/metrics"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/report"
	"github.com/garyjia/newsroom-workflow/internal/infrastructure/worker"
	"github.com/garyjia/newsroom-workflow/migrations"
	"github.com/garyjia/newsroom-workflow/pkg/database"
	"github.com/garyjia/newsroom-workflow/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and runs any pending migrations.
// Migrations come from MigrationsDir when set, otherwise from the embedded set.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	var source fs.FS = migrations.FS
	if cfg.MigrationsDir != "" {
		source = os.DirFS(cfg.MigrationsDir)
	}
	if err := database.NewMigrator(db, logger).RunMigrations(source); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories over the transaction-aware database.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Article: repository.NewArticleRepository(db, logger),
		History: repository.NewHistoryRepository(db, logger),
	}, nil
}

// ProvideChatNotifier creates the Lark messenger when Lark is configured.
// It returns a nil notifier, not an error, when notifications are disabled.
func ProvideChatNotifier(cfg *LarkConfig, logger *zap.Logger) (port.ChatNotifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	larkCfg := infraLark.Config{
		AppID:          cfg.AppID,
		AppSecret:      cfg.AppSecret,
		ChatID:         cfg.ChatID,
		BaseURL:        cfg.BaseURL,
		RequestTimeout: cfg.RequestTimeout,
	}
	if !larkCfg.Enabled() {
		logger.Info("Lark notifications disabled")
		return nil, nil
	}

	sdkClient := infraLark.NewSDKClient(larkCfg, logger)
	logger.Info("Lark notifications enabled",
		zap.String("app_id", sdkClient.AppID()),
		zap.String("chat_id", cfg.ChatID))

	return infraLark.NewMessenger(sdkClient, cfg.ChatID, logger), nil
}

// ProvidePolicy loads the role policy file, or returns the built-in policy.
// With the scheduler on, the policy must let SYSTEM publish.
func ProvidePolicy(cfg *WorkflowConfig, schedulerEnabled bool, logger *zap.Logger) (*policy.Policy, error) {
	if cfg == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	if cfg.PolicyPath == "" {
		return policy.Default(), nil
	}

	p, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, err
	}
	if schedulerEnabled {
		if err := p.Require(policy.RoleSystem, workflow.ActionPublish); err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.PolicyPath, err)
		}
	}
	logger.Info("Role policy loaded",
		zap.String("path", cfg.PolicyPath),
		zap.Strings("roles", p.Roles()))
	return p, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKVLogger(logger.Named("dispatcher"))),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos       *RepositoryBundle
	TxManager   port.TransactionManager
	Dispatcher  dispatcher.Dispatcher
	Policy      *policy.Policy
	Metrics     *metrics.Recorder
	Notifier    port.ChatNotifier
	StatusLabel func(workflow.State) string
	WorkflowCfg *WorkflowConfig
	LarkCfg     *LarkConfig
	Logger      *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification handlers to the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.WorkflowCfg == nil || deps.LarkCfg == nil {
		return nil, fmt.Errorf("workflow and lark config are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewKVLogger(deps.Logger)

	opts := []appworkflow.Option{
		appworkflow.WithDispatcher(deps.Dispatcher),
		appworkflow.WithPolicy(deps.Policy),
		appworkflow.WithLogger(serviceLogger),
		appworkflow.WithBulkConcurrency(deps.WorkflowCfg.BulkConcurrency),
	}
	if deps.Metrics != nil {
		opts = append(opts, appworkflow.WithMetrics(deps.Metrics))
	}
	workflowService := appworkflow.NewService(deps.Repos.Article, deps.Repos.History, deps.TxManager, opts...)

	notifyActions := make([]workflow.Action, 0, len(deps.LarkCfg.NotifyActions))
	for _, raw := range deps.LarkCfg.NotifyActions {
		a, err := workflow.ParseAction(raw)
		if err != nil {
			return nil, fmt.Errorf("lark.notify_actions: %w", err)
		}
		notifyActions = append(notifyActions, a)
	}
	notification := service.NewNotificationService(deps.Notifier, serviceLogger,
		service.WithNotifyActions(notifyActions),
		service.WithStatusLabels(deps.StatusLabel),
	)
	notification.Register(deps.Dispatcher)

	reports := service.NewReportService(
		deps.Repos.Article,
		report.NewXLSXRenderer(deps.StatusLabel, deps.Logger),
		serviceLogger,
	)

	return &ServiceBundle{
		Workflow:     workflowService,
		Report:       reports,
		Notification: notification,
	}, nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	Repos        *RepositoryBundle
	Workflow     appworkflow.Service
	Metrics      port.WorkflowMetrics
	SchedulerCfg *SchedulerConfig
	Logger       *zap.Logger
}

// ProvideWorkers creates and registers all background workers.
// Returns *worker.WorkerManager with all workers registered but not started.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Workflow == nil {
		return nil, fmt.Errorf("workflow service is required")
	}
	if deps.SchedulerCfg == nil {
		return nil, fmt.Errorf("scheduler config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(deps.Logger)

	if deps.SchedulerCfg.Enabled {
		publisher := worker.NewScheduledPublisher(
			worker.ScheduledPublisherConfig{
				PollInterval:   deps.SchedulerCfg.PollInterval,
				BatchSize:      deps.SchedulerCfg.BatchSize,
				ProcessTimeout: deps.SchedulerCfg.ProcessTimeout,
			},
			deps.Repos.Article,
			deps.Workflow,
			deps.Metrics,
			deps.Logger.Named("scheduler"),
		)
		manager.Register(publisher)
	} else {
		deps.Logger.Info("Scheduled publisher disabled")
	}

	return manager, nil
}
