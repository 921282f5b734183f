package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

aws:
  region: "us-west-2"
  profile: "ignite-dev"
  dynamodb_table: "audience-console-dev"
  s3_bucket: "ignite-audience-snapshots"

redis:
  addr: "localhost:6379"
  db: 2

sending:
  from_email: "rewards@ignite.example"
  from_name: "IGNITE Cashback"
  reply_to: "support@ignite.example"
  batch_size: 25
  send_interval_seconds: 10

segmentation:
  page_size: 500
  eval_timeout_seconds: 120

logging:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test server config
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Test AWS config
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, "ignite-dev", cfg.AWS.Profile)
	assert.Equal(t, "audience-console-dev", cfg.AWS.DynamoDBTable)
	assert.Equal(t, "ignite-audience-snapshots", cfg.AWS.S3Bucket)

	// Test Redis config
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)

	// Test sending config
	assert.Equal(t, "rewards@ignite.example", cfg.Sending.FromEmail)
	assert.Equal(t, "IGNITE Cashback", cfg.Sending.FromName)
	assert.Equal(t, "support@ignite.example", cfg.Sending.ReplyTo)
	assert.Equal(t, 25, cfg.Sending.BatchSize)
	assert.Equal(t, 10, cfg.Sending.SendIntervalSeconds)

	// Test segmentation config
	assert.Equal(t, 500, cfg.Segmentation.PageSize)
	assert.Equal(t, 120, cfg.Segmentation.EvalTimeoutSeconds)

	// Test logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.DisableRedaction)
}

func TestLoadDefaults(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
sending:
  from_email: "rewards@ignite.example"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "audience-console", cfg.AWS.DynamoDBTable)
	assert.Equal(t, "IGNITE Rewards", cfg.Sending.FromName)
	assert.Equal(t, 50, cfg.Sending.BatchSize)
	assert.Equal(t, 30, cfg.Sending.SendIntervalSeconds)
	assert.Equal(t, 200, cfg.Segmentation.PageSize)
	assert.Equal(t, 300, cfg.Segmentation.EvalTimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)

	// Empty addr means Redis is disabled
	assert.Equal(t, "", cfg.Redis.Addr)
	// Empty bucket means snapshots are disabled
	assert.Equal(t, "", cfg.AWS.S3Bucket)
}

func TestLoadFromEnv(t *testing.T) {
	// Create a minimal config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
aws:
  region: "us-east-1"
  dynamodb_table: "file-table"

sending:
  from_email: "file@ignite.example"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Set environment variables
	os.Setenv("AWS_REGION", "eu-west-1")
	os.Setenv("DYNAMODB_TABLE", "env-table")
	os.Setenv("REDIS_URL", "redis://env-host:6379/0")
	os.Setenv("SENDING_FROM_EMAIL", "env@ignite.example")
	os.Setenv("LOG_LEVEL", "warn")
	defer func() {
		os.Unsetenv("AWS_REGION")
		os.Unsetenv("DYNAMODB_TABLE")
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("SENDING_FROM_EMAIL")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "env-table", cfg.AWS.DynamoDBTable)
	assert.Equal(t, "redis://env-host:6379/0", cfg.Redis.Addr)
	assert.Equal(t, "env@ignite.example", cfg.Sending.FromEmail)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "audience-console", cfg.AWS.DynamoDBTable)
	assert.Equal(t, 50, cfg.Sending.BatchSize)
}

func TestGetProfile(t *testing.T) {
	cfg := AWSConfig{Profile: "ignite-dev"}
	assert.Equal(t, "ignite-dev", cfg.GetProfile())

	os.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", cfg.GetProfile())

	os.Setenv("AWS_PROFILE_OVERRIDE", "staging")
	assert.Equal(t, "staging", cfg.GetProfile())
	os.Unsetenv("AWS_PROFILE_OVERRIDE")
}

func TestDurations(t *testing.T) {
	sending := SendingConfig{SendIntervalSeconds: 10}
	assert.Equal(t, 10*1000000000, int(sending.SendInterval().Nanoseconds()))

	seg := SegmentationConfig{EvalTimeoutSeconds: 120}
	assert.Equal(t, 120*1000000000, int(seg.EvalTimeout().Nanoseconds()))
}
