package config

import (
	"strings"

	"github.com/garyjia/newsroom-workflow/internal/container"
	"github.com/garyjia/newsroom-workflow/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	actions := make([]string, 0, len(c.Lark.NotifyActions))
	for _, a := range c.Lark.NotifyActions {
		actions = append(actions, strings.ToUpper(strings.TrimSpace(a)))
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Lark: container.LarkConfig{
			AppID:          c.Lark.AppID,
			AppSecret:      c.Lark.AppSecret,
			ChatID:         c.Lark.ChatID,
			NotifyActions:  actions,
			BaseURL:        c.Lark.BaseURL,
			RequestTimeout: c.Lark.RequestTimeout,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
			MaxBulkItems:    c.Server.MaxBulkItems,
		},
		Workflow: container.WorkflowConfig{
			BulkConcurrency: c.Workflow.BulkConcurrency,
			PolicyPath:      c.Workflow.PolicyPath,
		},
		Scheduler: container.SchedulerConfig{
			Enabled:        c.Scheduler.Enabled,
			PollInterval:   c.Scheduler.PollInterval,
			BatchSize:      c.Scheduler.BatchSize,
			ProcessTimeout: c.Scheduler.ProcessTimeout,
		},
	}
}

// ToLoggerConfig converts the logger section for utils.NewLogger
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
