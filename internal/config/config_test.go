package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  path: /var/lib/newsroom/workflow.db
workflow:
  bulk_concurrency: 8
scheduler:
  poll_interval: 15s
  batch_size: 20
lark:
  notify_actions: [publish, reject]
  base_url: https://open.feishu.cn
logger:
  level: debug
  format: console
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/var/lib/newsroom/workflow.db", cfg.Database.Path)
	assert.Equal(t, 8, cfg.Workflow.BulkConcurrency)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, 20, cfg.Scheduler.BatchSize)
	assert.Equal(t, []string{"publish", "reject"}, cfg.Lark.NotifyActions)
	assert.Equal(t, "console", cfg.Logger.Format)

	cc := cfg.ToContainerConfig()
	assert.Equal(t, []string{"PUBLISH", "REJECT"}, cc.Lark.NotifyActions)
	assert.Equal(t, 15*time.Second, cc.Scheduler.PollInterval)
	assert.Equal(t, "https://open.feishu.cn", cc.Lark.BaseURL)
	assert.Equal(t, 10*time.Second, cc.Lark.RequestTimeout)
	require.NoError(t, cc.Validate())

	assert.Equal(t, "debug", cfg.ToLoggerConfig().Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("WORKFLOW_DB_PATH", "/tmp/override.db")
	t.Setenv("LARK_APP_ID", "cli_123")
	t.Setenv("LARK_APP_SECRET", "s3cret")
	t.Setenv("LARK_CHAT_ID", "oc_newsroom")

	cfg, err := Load(writeFile(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "cli_123", cfg.Lark.AppID)
	assert.Equal(t, "oc_newsroom", cfg.Lark.ChatID)
	assert.True(t, cfg.ToContainerConfig().Lark.Enabled())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data/newsroom.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, 4, cfg.Workflow.BulkConcurrency)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.yaml", "workflow:\n  bulk_concurrency: 0\n"))
	assert.ErrorContains(t, err, "bulk_concurrency")

	_, err = Load(writeFile(t, "lark.yaml", "lark:\n  app_id: cli_x\n  app_secret: y\n"))
	assert.ErrorContains(t, err, "lark.chat_id")

	_, err = Load(writeFile(t, "policy.yaml", "workflow:\n  policy_path: /nonexistent/roles.yaml\n"))
	assert.ErrorContains(t, err, "policy_path")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "NEWSROOM_TEST_A=from-file\nNEWSROOM_TEST_B=from-file\n")
	t.Setenv("NEWSROOM_TEST_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("NEWSROOM_TEST_A") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("NEWSROOM_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("NEWSROOM_TEST_B"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
