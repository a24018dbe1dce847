package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ligustah/filekit/pkg/filekit"
)

// Config defines configuration for the filekit CLI.
type Config struct {
	Bucket            string      `yaml:"bucket"`
	BaseURL           string      `yaml:"base_url"`
	MaxDirFiles       int         `yaml:"max_dir_files"`
	PreserveFileNames bool        `yaml:"preserve_file_names"`
	Overwrite         bool        `yaml:"overwrite"`
	Namer             string      `yaml:"namer"`
	MaxAttempts       int         `yaml:"max_attempts"`
	Progress          bool        `yaml:"progress"`
	Lock              LockConfig  `yaml:"lock"`
	Fetch             FetchConfig `yaml:"fetch"`
}

// LockConfig configures the shard index lock. An empty RedisAddr selects
// the in-process lock.
type LockConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	KeyPrefix     string        `yaml:"key_prefix"`
	TTL           time.Duration `yaml:"ttl"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// FetchConfig configures downloads of remote sources.
type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		MaxDirFiles: filekit.DefaultMaxFilesPerShard,
		Namer:       "random",
		MaxAttempts: filekit.DefaultMaxAttempts,
		Lock: LockConfig{
			KeyPrefix:     "filekit:lock:",
			TTL:           10 * time.Second,
			RetryInterval: 50 * time.Millisecond,
		},
		Fetch: FetchConfig{
			Timeout: 5 * time.Minute,
			Retry: RetryConfig{
				Attempts:   3,
				Backoff:    time.Second,
				MaxBackoff: 30 * time.Second,
			},
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Bucket            string          `yaml:"bucket"`
	BaseURL           string          `yaml:"base_url"`
	MaxDirFiles       int             `yaml:"max_dir_files"`
	PreserveFileNames bool            `yaml:"preserve_file_names"`
	Overwrite         bool            `yaml:"overwrite"`
	Namer             string          `yaml:"namer"`
	MaxAttempts       int             `yaml:"max_attempts"`
	Progress          bool            `yaml:"progress"`
	Lock              yamlLockConfig  `yaml:"lock"`
	Fetch             yamlFetchConfig `yaml:"fetch"`
}

type yamlLockConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	KeyPrefix     string `yaml:"key_prefix"`
	TTL           string `yaml:"ttl"`
	RetryInterval string `yaml:"retry_interval"`
}

type yamlFetchConfig struct {
	Timeout string          `yaml:"timeout"`
	Retry   yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file on top of Default().
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.MaxDirFiles != 0 {
		cfg.MaxDirFiles = yc.MaxDirFiles
	}
	cfg.PreserveFileNames = yc.PreserveFileNames
	cfg.Overwrite = yc.Overwrite
	if yc.Namer != "" {
		cfg.Namer = yc.Namer
	}
	if yc.MaxAttempts != 0 {
		cfg.MaxAttempts = yc.MaxAttempts
	}
	cfg.Progress = yc.Progress

	if yc.Lock.RedisAddr != "" {
		cfg.Lock.RedisAddr = yc.Lock.RedisAddr
	}
	if yc.Lock.KeyPrefix != "" {
		cfg.Lock.KeyPrefix = yc.Lock.KeyPrefix
	}
	if err := parseDuration(yc.Lock.TTL, "lock.ttl", &cfg.Lock.TTL); err != nil {
		return Config{}, err
	}
	if err := parseDuration(yc.Lock.RetryInterval, "lock.retry_interval", &cfg.Lock.RetryInterval); err != nil {
		return Config{}, err
	}

	if err := parseDuration(yc.Fetch.Timeout, "fetch.timeout", &cfg.Fetch.Timeout); err != nil {
		return Config{}, err
	}
	if yc.Fetch.Retry.Attempts != 0 {
		cfg.Fetch.Retry.Attempts = yc.Fetch.Retry.Attempts
	}
	if err := parseDuration(yc.Fetch.Retry.Backoff, "fetch.retry.backoff", &cfg.Fetch.Retry.Backoff); err != nil {
		return Config{}, err
	}
	if err := parseDuration(yc.Fetch.Retry.MaxBackoff, "fetch.retry.max_backoff", &cfg.Fetch.Retry.MaxBackoff); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// parseDuration sets *dst from s unless s is empty.
func parseDuration(s, key string, dst *time.Duration) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the FILEKIT_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("FILEKIT_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("FILEKIT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if err := envInt("FILEKIT_MAX_DIR_FILES", &c.MaxDirFiles); err != nil {
		return err
	}
	if v := os.Getenv("FILEKIT_PRESERVE_FILE_NAMES"); v != "" {
		c.PreserveFileNames = v == "true" || v == "1"
	}
	if v := os.Getenv("FILEKIT_OVERWRITE"); v != "" {
		c.Overwrite = v == "true" || v == "1"
	}
	if v := os.Getenv("FILEKIT_NAMER"); v != "" {
		c.Namer = v
	}
	if err := envInt("FILEKIT_MAX_ATTEMPTS", &c.MaxAttempts); err != nil {
		return err
	}
	if v := os.Getenv("FILEKIT_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("FILEKIT_LOCK_REDIS_ADDR"); v != "" {
		c.Lock.RedisAddr = v
	}
	if v := os.Getenv("FILEKIT_LOCK_KEY_PREFIX"); v != "" {
		c.Lock.KeyPrefix = v
	}
	if err := envDuration("FILEKIT_LOCK_TTL", &c.Lock.TTL); err != nil {
		return err
	}
	if err := envDuration("FILEKIT_LOCK_RETRY_INTERVAL", &c.Lock.RetryInterval); err != nil {
		return err
	}
	if err := envDuration("FILEKIT_FETCH_TIMEOUT", &c.Fetch.Timeout); err != nil {
		return err
	}
	if err := envInt("FILEKIT_FETCH_RETRY_ATTEMPTS", &c.Fetch.Retry.Attempts); err != nil {
		return err
	}
	if err := envDuration("FILEKIT_FETCH_RETRY_BACKOFF", &c.Fetch.Retry.Backoff); err != nil {
		return err
	}
	if err := envDuration("FILEKIT_FETCH_RETRY_MAX_BACKOFF", &c.Fetch.Retry.MaxBackoff); err != nil {
		return err
	}

	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("config: bucket is required")
	}
	if c.MaxDirFiles != filekit.Unlimited && c.MaxDirFiles < 1 {
		return errors.New("config: max_dir_files must be positive or -1")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("config: max_attempts must be positive")
	}
	if _, err := filekit.NamerByName(c.Namer); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Lock.RedisAddr != "" && c.Lock.TTL <= 0 {
		return errors.New("config: lock.ttl must be positive")
	}
	if c.Fetch.Retry.Attempts < 0 {
		return errors.New("config: fetch.retry.attempts must not be negative")
	}
	return nil
}

// MergeExplicit merges override into c like Merge. In addition, the boolean
// fields named in set by their YAML key are copied even when false, so an
// explicit "false" can clear a setting from a file or the environment.
func (c Config) MergeExplicit(override Config, set map[string]bool) Config {
	c = c.Merge(override)
	if set["preserve_file_names"] {
		c.PreserveFileNames = override.PreserveFileNames
	}
	if set["overwrite"] {
		c.Overwrite = override.Overwrite
	}
	if set["progress"] {
		c.Progress = override.Progress
	}
	return c
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.MaxDirFiles != 0 {
		c.MaxDirFiles = override.MaxDirFiles
	}
	if override.PreserveFileNames {
		c.PreserveFileNames = override.PreserveFileNames
	}
	if override.Overwrite {
		c.Overwrite = override.Overwrite
	}
	if override.Namer != "" {
		c.Namer = override.Namer
	}
	if override.MaxAttempts != 0 {
		c.MaxAttempts = override.MaxAttempts
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Lock.RedisAddr != "" {
		c.Lock.RedisAddr = override.Lock.RedisAddr
	}
	if override.Lock.KeyPrefix != "" {
		c.Lock.KeyPrefix = override.Lock.KeyPrefix
	}
	if override.Lock.TTL != 0 {
		c.Lock.TTL = override.Lock.TTL
	}
	if override.Lock.RetryInterval != 0 {
		c.Lock.RetryInterval = override.Lock.RetryInterval
	}
	if override.Fetch.Timeout != 0 {
		c.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.Retry.Attempts != 0 {
		c.Fetch.Retry.Attempts = override.Fetch.Retry.Attempts
	}
	if override.Fetch.Retry.Backoff != 0 {
		c.Fetch.Retry.Backoff = override.Fetch.Retry.Backoff
	}
	if override.Fetch.Retry.MaxBackoff != 0 {
		c.Fetch.Retry.MaxBackoff = override.Fetch.Retry.MaxBackoff
	}
	return c
}

// LockKeyPrefix returns the Redis key prefix for the shard lock, scoped to
// the bucket so unrelated buckets sharing one Redis do not contend.
func (c *Config) LockKeyPrefix() string {
	return c.Lock.KeyPrefix + c.Bucket + ":"
}

// StorageOptions translates the configuration into filekit options. The
// locker and logger are supplied by the caller.
func (c *Config) StorageOptions() ([]filekit.Option, error) {
	namer, err := filekit.NamerByName(c.Namer)
	if err != nil {
		return nil, err
	}
	opts := []filekit.Option{
		filekit.WithMaxFilesPerShard(c.MaxDirFiles),
		filekit.WithPreserveFileNames(c.PreserveFileNames),
		filekit.WithOverwrite(c.Overwrite),
		filekit.WithMaxAttempts(c.MaxAttempts),
		filekit.WithNamer(namer),
	}
	if c.BaseURL != "" {
		opts = append(opts, filekit.WithBaseURL(c.BaseURL))
	}
	return opts, nil
}
