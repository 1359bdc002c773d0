// Package container provides dependency injection and lifecycle management
// for the newsroom workflow service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/newsroom-workflow/internal/domain/workflow"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Lark chat notification configuration
	Lark LarkConfig

	// Server configuration
	Server ServerConfig

	// Workflow service configuration
	Workflow WorkflowConfig

	// Scheduler configuration
	Scheduler SchedulerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// ChatID is the group chat that receives workflow notifications
	ChatID string

	// NotifyActions limits chat messages to these actions; empty means all
	NotifyActions []string

	// BaseURL overrides the open platform host (Feishu tenants)
	BaseURL string

	// RequestTimeout bounds each Lark API call
	RequestTimeout time.Duration
}

// Enabled reports whether chat notifications are configured
func (c LarkConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ChatID != ""
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration

	// MaxBulkItems bounds one bulk transition request
	MaxBulkItems int
}

// WorkflowConfig holds workflow service settings.
type WorkflowConfig struct {
	// BulkConcurrency bounds how many bulk items are applied at once
	BulkConcurrency int

	// PolicyPath is a YAML role policy; empty uses the built-in policy
	PolicyPath string
}

// SchedulerConfig holds scheduled publisher settings.
type SchedulerConfig struct {
	Enabled        bool
	PollInterval   time.Duration
	BatchSize      int
	ProcessTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/newsroom.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBulkItems:    500,
		},
		Workflow: WorkflowConfig{
			BulkConcurrency: 4,
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			PollInterval:   30 * time.Second,
			BatchSize:      50,
			ProcessTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	// Validate database configuration
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate server configuration
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	// Validate workflow configuration
	if c.Workflow.BulkConcurrency < 1 {
		return fmt.Errorf("workflow.bulk_concurrency must be at least 1")
	}

	// Validate scheduler configuration
	if c.Scheduler.Enabled {
		if c.Scheduler.PollInterval <= 0 {
			return fmt.Errorf("scheduler.poll_interval must be positive")
		}
		if c.Scheduler.BatchSize < 1 {
			return fmt.Errorf("scheduler.batch_size must be at least 1")
		}
	}

	// Validate Lark configuration; credentials come as a pair
	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}
	if c.Lark.AppID != "" && c.Lark.ChatID == "" {
		return fmt.Errorf("lark.chat_id is required when lark credentials are set")
	}
	for _, a := range c.Lark.NotifyActions {
		if _, err := workflow.ParseAction(a); err != nil {
			return fmt.Errorf("lark.notify_actions: %w", err)
		}
	}

	return nil
}
