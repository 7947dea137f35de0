// env.go applies QUILL_* environment overrides on top of file configuration.
//
// Overrides are applied to the runtime Config only. LoadScope never sees
// them, so "quill config" does not write environment values back to disk.

package config

import (
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnv.
const (
	EnvUser        = "QUILL_USER"
	EnvDatabaseURL = "QUILL_DATABASE_URL"
	EnvStoreDriver = "QUILL_STORE_DRIVER"
	EnvBlobBackend = "QUILL_BLOB_BACKEND"
	EnvBlobDir     = "QUILL_BLOB_DIR"
	EnvS3Endpoint  = "QUILL_S3_ENDPOINT"
	EnvS3Bucket    = "QUILL_S3_BUCKET"
	EnvS3AccessKey = "QUILL_S3_ACCESS_KEY"
	EnvS3SecretKey = "QUILL_S3_SECRET_KEY"
	EnvS3Region    = "QUILL_S3_REGION"
	EnvS3UseSSL    = "QUILL_S3_USE_SSL"
	EnvRedisURL    = "QUILL_REDIS_URL"
	EnvLogFormat   = "QUILL_LOG_FORMAT"
)

// ApplyEnv overrides file values with non-empty environment variables.
// getenv is os.Getenv in production and a map lookup in tests.
//
// QUILL_DATABASE_URL with a postgres:// or postgresql:// scheme also selects
// the postgres driver, and QUILL_REDIS_URL selects the redis lock backend,
// unless a driver or backend is set explicitly.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.User.ID, EnvUser)
	set(&c.Store.DSN, EnvDatabaseURL)
	set(&c.Store.Driver, EnvStoreDriver)
	if c.Store.Driver == "" && isPostgresURL(getenv(EnvDatabaseURL)) {
		c.Store.Driver = "postgres"
	}

	set(&c.Blob.Backend, EnvBlobBackend)
	set(&c.Blob.Dir, EnvBlobDir)
	set(&c.Blob.S3.Endpoint, EnvS3Endpoint)
	set(&c.Blob.S3.Bucket, EnvS3Bucket)
	set(&c.Blob.S3.AccessKey, EnvS3AccessKey)
	set(&c.Blob.S3.SecretKey, EnvS3SecretKey)
	set(&c.Blob.S3.Region, EnvS3Region)
	if v := getenv(EnvS3UseSSL); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Blob.S3.UseSSL = &b
		}
	}

	if v := getenv(EnvRedisURL); v != "" {
		c.Lock.RedisURL = v
		if c.Lock.Backend == "" {
			c.Lock.Backend = "redis"
		}
	}

	set(&c.Log.Format, EnvLogFormat)
}

func isPostgresURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}
