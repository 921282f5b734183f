package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	AWS          AWSConfig          `yaml:"aws"`
	Redis        RedisConfig        `yaml:"redis"`
	Sending      SendingConfig      `yaml:"sending"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// AWSConfig holds the AWS region, credentials profile, and resource names
// shared by the DynamoDB store, the S3 snapshot store, and the SES sender.
type AWSConfig struct {
	Region        string `yaml:"region"`
	Profile       string `yaml:"profile"` // Empty string uses default credential chain (IAM role on ECS)
	DynamoDBTable string `yaml:"dynamodb_table"`
	S3Bucket      string `yaml:"s3_bucket"` // Audience snapshot bucket; empty disables snapshots
}

// GetProfile returns the AWS profile, with environment variable override
func (c AWSConfig) GetProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "" // Running on ECS or Lambda, use IAM role
	}
	return c.Profile
}

// RedisConfig holds the Redis connection used for distributed locking.
// An empty addr disables Redis and falls back to in-process locks.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SendingConfig holds campaign sending configuration
type SendingConfig struct {
	FromEmail           string `yaml:"from_email"`
	FromName            string `yaml:"from_name"`
	ReplyTo             string `yaml:"reply_to"`
	BatchSize           int    `yaml:"batch_size"`
	SendIntervalSeconds int    `yaml:"send_interval_seconds"`
}

// SendInterval returns the campaign worker poll interval as a duration
func (c SendingConfig) SendInterval() time.Duration {
	return time.Duration(c.SendIntervalSeconds) * time.Second
}

// SegmentationConfig holds segment evaluation configuration
type SegmentationConfig struct {
	PageSize           int `yaml:"page_size"`
	EvalTimeoutSeconds int `yaml:"eval_timeout_seconds"`
}

// EvalTimeout returns the segment evaluation deadline as a duration
func (c SegmentationConfig) EvalTimeout() time.Duration {
	return time.Duration(c.EvalTimeoutSeconds) * time.Second
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	// DisableRedaction turns off PII masking in log fields. Leave unset
	// in production.
	DisableRedaction bool `yaml:"disable_redaction"`
}

// Load reads and parses the configuration file. A missing file is not
// an error; defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.AWS.DynamoDBTable == "" {
		cfg.AWS.DynamoDBTable = "audience-console"
	}
	if cfg.Sending.FromName == "" {
		cfg.Sending.FromName = "IGNITE Rewards"
	}
	if cfg.Sending.BatchSize == 0 {
		cfg.Sending.BatchSize = 50
	}
	if cfg.Sending.SendIntervalSeconds == 0 {
		cfg.Sending.SendIntervalSeconds = 30
	}
	if cfg.Segmentation.PageSize == 0 {
		cfg.Segmentation.PageSize = 200
	}
	if cfg.Segmentation.EvalTimeoutSeconds == 0 {
		cfg.Segmentation.EvalTimeoutSeconds = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.AWS.Region = region
	}
	if table := os.Getenv("DYNAMODB_TABLE"); table != "" {
		cfg.AWS.DynamoDBTable = table
	}
	if bucket := os.Getenv("SNAPSHOT_S3_BUCKET"); bucket != "" {
		cfg.AWS.S3Bucket = bucket
	}
	if addr := os.Getenv("REDIS_URL"); addr != "" {
		cfg.Redis.Addr = addr
	} else if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if from := os.Getenv("SENDING_FROM_EMAIL"); from != "" {
		cfg.Sending.FromEmail = from
	}
	if name := os.Getenv("SENDING_FROM_NAME"); name != "" {
		cfg.Sending.FromName = name
	}
	if replyTo := os.Getenv("SENDING_REPLY_TO"); replyTo != "" {
		cfg.Sending.ReplyTo = replyTo
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg, nil
}
