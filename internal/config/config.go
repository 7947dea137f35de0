// Package config provides reading and writing of quill configuration.
// Supports both global (~/.quill/config.yaml) and local (.quill/config.yaml).
// Reading: uses local if it exists, otherwise global, then applies
// environment overrides. Writing: defaults to global, use --local for local.
//
// The resolved Config is built once at startup and passed to the components
// that need it. Nothing in the module reads configuration from a global.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrUnknownKey is returned when getting/setting an unknown config key.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Dir is the directory holding local configuration and the default stores.
const Dir = ".quill"

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.quill/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is repository-specific config in .quill/config.yaml
	ScopeLocal
)

// User identifies who the CLI acts for when --user is not given.
type User struct {
	ID string `yaml:"id,omitempty"`
}

// Store selects the relational metadata backend.
type Store struct {
	Driver string `yaml:"driver,omitempty"` // sqlite | postgres
	DSN    string `yaml:"dsn,omitempty"`    // file path for sqlite, URL for postgres
}

// S3 holds object storage settings for the s3 blob backend.
type S3 struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    *bool  `yaml:"use_ssl,omitempty"`
}

// Blob selects where document content is kept.
type Blob struct {
	Backend string `yaml:"backend,omitempty"` // fs | s3 | memory
	Dir     string `yaml:"dir,omitempty"`
	S3      S3     `yaml:"s3,omitempty"`
}

// Lock selects how concurrent writers to one document are serialised.
type Lock struct {
	Backend  string `yaml:"backend,omitempty"` // local | redis
	RedisURL string `yaml:"redis_url,omitempty"`
	TTL      string `yaml:"ttl,omitempty"` // Go duration, e.g. "30s"
}

// Match holds fuzzy matching settings.
type Match struct {
	Threshold *float64 `yaml:"threshold,omitempty"`
}

// Limits holds size and time limits.
type Limits struct {
	MaxContent    *int64 `yaml:"max_content,omitempty"`
	PreviewLength *int   `yaml:"preview_length,omitempty"`
	Timeout       string `yaml:"timeout,omitempty"` // Go duration applied to each storage call
}

// Log holds operational logging settings.
type Log struct {
	Format string `yaml:"format,omitempty"` // text | json
}

// Defaults applied when a value is not configured.
const (
	DefaultStoreDriver    = "sqlite"
	DefaultBlobBackend    = "fs"
	DefaultLockBackend    = "local"
	DefaultLockTTL        = 30 * time.Second
	DefaultThreshold      = 0.8
	DefaultMaxContent     = 10 * 1024 * 1024 // 10 MB
	DefaultPreviewLength  = 200
	DefaultTimeout        = 10 * time.Second
	DefaultLogFormat      = "text"
	DefaultS3Region       = "us-east-1"
	MaxMaxContent         = 1024 * 1024 * 1024 // 1 GB
	MaxPreviewLength      = 10000
	DefaultSQLiteFileName = "quill.db"
)

// Config contains configuration for quill.
type Config struct {
	User   User   `yaml:"user,omitempty"`
	Store  Store  `yaml:"store,omitempty"`
	Blob   Blob   `yaml:"blob,omitempty"`
	Lock   Lock   `yaml:"lock,omitempty"`
	Match  Match  `yaml:"match,omitempty"`
	Limits Limits `yaml:"limits,omitempty"`
	Log    Log    `yaml:"log,omitempty"`

	// path is the file this config was loaded from (for Save)
	path  string
	scope Scope
}

// UserID returns the configured default user.
func (c *Config) UserID() string {
	return c.User.ID
}

// StoreDriver returns the relational backend (defaults to sqlite).
func (c *Config) StoreDriver() string {
	if c.Store.Driver == "" {
		return DefaultStoreDriver
	}
	return c.Store.Driver
}

// BlobBackend returns the blob backend (defaults to fs).
func (c *Config) BlobBackend() string {
	if c.Blob.Backend == "" {
		return DefaultBlobBackend
	}
	return c.Blob.Backend
}

// S3UseSSL reports whether the S3 endpoint is reached over TLS (defaults to true).
func (c *Config) S3UseSSL() bool {
	if c.Blob.S3.UseSSL == nil {
		return true
	}
	return *c.Blob.S3.UseSSL
}

// S3Region returns the bucket region (defaults to us-east-1).
func (c *Config) S3Region() string {
	if c.Blob.S3.Region == "" {
		return DefaultS3Region
	}
	return c.Blob.S3.Region
}

// LockBackend returns the lock backend (defaults to local).
func (c *Config) LockBackend() string {
	if c.Lock.Backend == "" {
		return DefaultLockBackend
	}
	return c.Lock.Backend
}

// LockTTL returns the Redis lease duration (defaults to 30s).
func (c *Config) LockTTL() time.Duration {
	return durationOr(c.Lock.TTL, DefaultLockTTL)
}

// Threshold returns the minimum fuzzy match similarity (defaults to 0.8).
func (c *Config) Threshold() float64 {
	if c.Match.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Match.Threshold
}

// MaxContent returns the maximum content size in bytes (defaults to 10 MB).
func (c *Config) MaxContent() int64 {
	if c.Limits.MaxContent == nil {
		return DefaultMaxContent
	}
	return *c.Limits.MaxContent
}

// PreviewLength returns the preview length in runes (defaults to 200).
func (c *Config) PreviewLength() int {
	if c.Limits.PreviewLength == nil {
		return DefaultPreviewLength
	}
	return *c.Limits.PreviewLength
}

// Timeout returns the per-call storage timeout (defaults to 10s).
func (c *Config) Timeout() time.Duration {
	return durationOr(c.Limits.Timeout, DefaultTimeout)
}

// LogFormat returns the operational log format (defaults to text).
func (c *Config) LogFormat() string {
	if c.Log.Format == "" {
		return DefaultLogFormat
	}
	return c.Log.Format
}

// durationOr parses s, falling back to def when unset. Validate has already
// rejected malformed values by the time accessors run.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// LocalPath returns the path to the local (repository) config file.
func LocalPath() string {
	return filepath.Join(Dir, "config.yaml")
}

// GlobalPath returns the path to the global (user) config file: ~/.quill/config.yaml
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, Dir, "config.yaml")
}

// Load reads configuration for use at runtime: a .env file in the working
// directory is loaded into the environment, the local config is used if it
// exists (otherwise global), and QUILL_* variables override file values.
// The result is validated after overrides are applied.
func Load() (*Config, error) {
	// .env is optional; variables already set in the process win.
	_ = godotenv.Load()

	scope := ScopeGlobal
	if _, err := os.Stat(LocalPath()); err == nil {
		scope = ScopeLocal
	}
	cfg, err := LoadScope(scope)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadScope reads configuration from a specific scope without environment
// overrides. Use this when the config will be saved back to disk.
func LoadScope(scope Scope) (*Config, error) {
	path := pathForScope(scope)
	if path == "" {
		return &Config{scope: scope}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path, scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w\n\nTo fix: edit the file to correct the YAML syntax, or delete it to use defaults", path, err)
	}
	cfg.path = path
	cfg.scope = scope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Scope returns which scope this config was loaded from.
func (c *Config) Scope() Scope {
	return c.scope
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = pathForScope(c.scope)
	}
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// SaveScope writes the configuration to the specified scope.
func (c *Config) SaveScope(scope Scope) error {
	path := pathForScope(scope)
	if path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(path)
}

// saveToPath writes configuration to a specific filesystem path.
// The file may hold S3 credentials, so it is written 0600.
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// pathForScope returns the filesystem path for a given scope.
func pathForScope(scope Scope) string {
	switch scope {
	case ScopeLocal:
		return LocalPath()
	case ScopeGlobal:
		return GlobalPath()
	default:
		return ""
	}
}
