// Package config provides CLI configuration management for the mint command-line tool.
// It supports loading configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultModelHostURL     = "http://localhost:8090"
	DefaultModelHostTimeout = 2 * time.Minute
	DefaultRedisAddr        = "localhost:6379"
	DefaultOutputFormat     = OutputFormatText
	DefaultConfigDir        = ".mint"
	DefaultConfigFile       = "config.yaml"
	DefaultMergeGapSeconds  = 2.0
	DefaultRetentionDays    = 90
	DefaultWorkerCount      = 2
)

// DatabaseConfig holds Postgres connection settings. The password is never
// stored here; it comes from the credentials store or MINT_DB_PASSWORD.
type DatabaseConfig struct {
	// Host is the database server hostname.
	Host string `yaml:"host,omitempty"`

	// Port is the database server port (default: 5432).
	Port int `yaml:"port,omitempty"`

	// Database is the database name.
	Database string `yaml:"database,omitempty"`

	// User is the database username.
	User string `yaml:"user,omitempty"`

	// SSLMode is the SSL connection mode (disable, require, verify-ca, verify-full).
	SSLMode string `yaml:"sslmode,omitempty"`
}

// RedisConfig holds Redis connection settings for the meeting queue.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr,omitempty"`

	// DB is the Redis database number.
	DB int `yaml:"db,omitempty"`
}

// ModelHostConfig holds settings for the local model-serving sidecar.
type ModelHostConfig struct {
	// BaseURL is the model host base URL.
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout is the per-request timeout. Transcription of long meetings
	// can take minutes, so this defaults generously.
	Timeout time.Duration `yaml:"-"`
}

// QueueConfig holds meeting queue worker settings.
type QueueConfig struct {
	// Name is the queue name.
	Name string `yaml:"name,omitempty"`

	// Workers is the number of concurrent pipeline workers.
	Workers int `yaml:"workers,omitempty"`

	// MaxRetries is how many times a failed job is retried before
	// moving to the dead letter queue.
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// PipelineConfig holds transcript processing tuning knobs.
type PipelineConfig struct {
	// MergeGapSeconds is the maximum silence between same-speaker segments
	// that still merges them into one segment.
	MergeGapSeconds float64 `yaml:"merge_gap_seconds,omitempty"`

	// RetentionDays is how long completed actions and old meetings are kept
	// before cleanup removes them.
	RetentionDays int `yaml:"retention_days,omitempty"`
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// Database holds Postgres connection settings.
	Database DatabaseConfig `yaml:"database"`

	// Redis holds queue connection settings.
	Redis RedisConfig `yaml:"redis"`

	// ModelHost holds model sidecar settings.
	ModelHost ModelHostConfig `yaml:"model_host"`

	// Queue holds worker settings.
	Queue QueueConfig `yaml:"queue"`

	// Pipeline holds processing tuning knobs.
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		OutputFormat: DefaultOutputFormat,
		Redis: RedisConfig{
			Addr: DefaultRedisAddr,
		},
		ModelHost: ModelHostConfig{
			BaseURL: DefaultModelHostURL,
			Timeout: DefaultModelHostTimeout,
		},
		Queue: QueueConfig{
			Workers: DefaultWorkerCount,
		},
		Pipeline: PipelineConfig{
			MergeGapSeconds: DefaultMergeGapSeconds,
			RetentionDays:   DefaultRetentionDays,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MINT_CONFIG_DIR if set, otherwise ~/.mint
func ConfigDir() (string, error) {
	if dir := os.Getenv("MINT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.mint/config.yaml or $MINT_CONFIG_DIR/config.yaml)
// 3. Environment variables (MINT_OUTPUT_FORMAT, MINT_MODEL_HOST_URL, ...)
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// We need a temp struct for unmarshaling duration as string.
	type modelHostFile struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	}
	type configFile struct {
		OutputFormat OutputFormat   `yaml:"output_format"`
		Debug        bool           `yaml:"debug"`
		Database     DatabaseConfig `yaml:"database"`
		Redis        RedisConfig    `yaml:"redis"`
		ModelHost    modelHostFile  `yaml:"model_host"`
		Queue        QueueConfig    `yaml:"queue"`
		Pipeline     PipelineConfig `yaml:"pipeline"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug

	if fileCfg.Database.Host != "" {
		cfg.Database.Host = fileCfg.Database.Host
	}
	if fileCfg.Database.Port != 0 {
		cfg.Database.Port = fileCfg.Database.Port
	}
	if fileCfg.Database.Database != "" {
		cfg.Database.Database = fileCfg.Database.Database
	}
	if fileCfg.Database.User != "" {
		cfg.Database.User = fileCfg.Database.User
	}
	if fileCfg.Database.SSLMode != "" {
		cfg.Database.SSLMode = fileCfg.Database.SSLMode
	}

	if fileCfg.Redis.Addr != "" {
		cfg.Redis.Addr = fileCfg.Redis.Addr
	}
	if fileCfg.Redis.DB != 0 {
		cfg.Redis.DB = fileCfg.Redis.DB
	}

	if fileCfg.ModelHost.BaseURL != "" {
		cfg.ModelHost.BaseURL = fileCfg.ModelHost.BaseURL
	}
	if fileCfg.ModelHost.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.ModelHost.Timeout)
		if err != nil {
			return fmt.Errorf("parsing model_host.timeout: %w", err)
		}
		cfg.ModelHost.Timeout = timeout
	}

	if fileCfg.Queue.Name != "" {
		cfg.Queue.Name = fileCfg.Queue.Name
	}
	if fileCfg.Queue.Workers != 0 {
		cfg.Queue.Workers = fileCfg.Queue.Workers
	}
	if fileCfg.Queue.MaxRetries != 0 {
		cfg.Queue.MaxRetries = fileCfg.Queue.MaxRetries
	}

	if fileCfg.Pipeline.MergeGapSeconds != 0 {
		cfg.Pipeline.MergeGapSeconds = fileCfg.Pipeline.MergeGapSeconds
	}
	if fileCfg.Pipeline.RetentionDays != 0 {
		cfg.Pipeline.RetentionDays = fileCfg.Pipeline.RetentionDays
	}

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("MINT_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}

	if v := os.Getenv("MINT_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if v := os.Getenv("MINT_MODEL_HOST_URL"); v != "" {
		cfg.ModelHost.BaseURL = v
	}

	if v := os.Getenv("MINT_MODEL_HOST_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.ModelHost.Timeout = timeout
		}
	}

	if v := os.Getenv("MINT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}

	if v := os.Getenv("MINT_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}

	if v := os.Getenv("MINT_QUEUE_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Queue.Workers = workers
		}
	}

	// Database env vars follow the MINT_DB_* convention used by the
	// connection layer; only the fields stored in config are overlaid here.
	if v := os.Getenv("MINT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MINT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("MINT_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("MINT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MINT_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if c.ModelHost.Timeout < 0 {
		return fmt.Errorf("model_host.timeout must not be negative")
	}

	if c.Queue.Workers < 0 {
		return fmt.Errorf("queue.workers must not be negative")
	}

	if c.Pipeline.MergeGapSeconds < 0 {
		return fmt.Errorf("pipeline.merge_gap_seconds must not be negative")
	}

	if c.Pipeline.RetentionDays < 0 {
		return fmt.Errorf("pipeline.retention_days must not be negative")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	// Convert to YAML-friendly format with duration as string.
	type modelHostFile struct {
		BaseURL string `yaml:"base_url,omitempty"`
		Timeout string `yaml:"timeout,omitempty"`
	}
	type configFile struct {
		OutputFormat OutputFormat   `yaml:"output_format"`
		Debug        bool           `yaml:"debug,omitempty"`
		Database     DatabaseConfig `yaml:"database,omitempty"`
		Redis        RedisConfig    `yaml:"redis,omitempty"`
		ModelHost    modelHostFile  `yaml:"model_host,omitempty"`
		Queue        QueueConfig    `yaml:"queue,omitempty"`
		Pipeline     PipelineConfig `yaml:"pipeline,omitempty"`
	}

	fileCfg := configFile{
		OutputFormat: cfg.OutputFormat,
		Debug:        cfg.Debug,
		Database:     cfg.Database,
		Redis:        cfg.Redis,
		ModelHost: modelHostFile{
			BaseURL: cfg.ModelHost.BaseURL,
			Timeout: cfg.ModelHost.Timeout.String(),
		},
		Queue:    cfg.Queue,
		Pipeline: cfg.Pipeline,
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
