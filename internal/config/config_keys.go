// config_keys.go provides key-value access to configuration settings.
//
// Separated from config.go to isolate the key enumeration and string-based
// get/set logic used by "quill config" and the MCP layer, where config is
// addressed by dotted keys such as "limits.max_content".
//
// Pointers are used for optional numeric and boolean fields so "not set"
// (nil) is distinguishable from an explicit zero or false.

package config

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// ValidKeys returns all valid configuration keys.
func ValidKeys() []string {
	return []string{
		"user.id",
		"store.driver", "store.dsn",
		"blob.backend", "blob.dir",
		"blob.s3.endpoint", "blob.s3.bucket", "blob.s3.access_key", "blob.s3.secret_key",
		"blob.s3.region", "blob.s3.use_ssl",
		"lock.backend", "lock.redis_url", "lock.ttl",
		"match.threshold",
		"limits.max_content", "limits.preview_length", "limits.timeout",
		"log.format",
	}
}

// IsValidKey returns true if the key is a valid configuration key.
func IsValidKey(key string) bool {
	return slices.Contains(ValidKeys(), key)
}

// secretKeys are masked by All.
var secretKeys = []string{"blob.s3.secret_key"}

// Get returns the value of a configuration key as a string, with defaults
// applied.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "user.id":
		return c.User.ID, nil
	case "store.driver":
		return c.StoreDriver(), nil
	case "store.dsn":
		return c.Store.DSN, nil
	case "blob.backend":
		return c.BlobBackend(), nil
	case "blob.dir":
		return c.Blob.Dir, nil
	case "blob.s3.endpoint":
		return c.Blob.S3.Endpoint, nil
	case "blob.s3.bucket":
		return c.Blob.S3.Bucket, nil
	case "blob.s3.access_key":
		return c.Blob.S3.AccessKey, nil
	case "blob.s3.secret_key":
		return c.Blob.S3.SecretKey, nil
	case "blob.s3.region":
		return c.S3Region(), nil
	case "blob.s3.use_ssl":
		return strconv.FormatBool(c.S3UseSSL()), nil
	case "lock.backend":
		return c.LockBackend(), nil
	case "lock.redis_url":
		return c.Lock.RedisURL, nil
	case "lock.ttl":
		return c.LockTTL().String(), nil
	case "match.threshold":
		return strconv.FormatFloat(c.Threshold(), 'g', -1, 64), nil
	case "limits.max_content":
		return strconv.FormatInt(c.MaxContent(), 10), nil
	case "limits.preview_length":
		return strconv.Itoa(c.PreviewLength()), nil
	case "limits.timeout":
		return c.Timeout().String(), nil
	case "log.format":
		return c.LogFormat(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set sets the value of a configuration key. The changed config is
// validated so a bad value never reaches disk.
func (c *Config) Set(key, value string) error {
	next := *c
	if err := next.set(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "user.id":
		c.User.ID = value
	case "store.driver":
		c.Store.Driver = value
	case "store.dsn":
		c.Store.DSN = value
	case "blob.backend":
		c.Blob.Backend = value
	case "blob.dir":
		c.Blob.Dir = value
	case "blob.s3.endpoint":
		c.Blob.S3.Endpoint = value
	case "blob.s3.bucket":
		c.Blob.S3.Bucket = value
	case "blob.s3.access_key":
		c.Blob.S3.AccessKey = value
	case "blob.s3.secret_key":
		c.Blob.S3.SecretKey = value
	case "blob.s3.region":
		c.Blob.S3.Region = value
	case "blob.s3.use_ssl":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: blob.s3.use_ssl must be true or false", ErrInvalidValue)
		}
		c.Blob.S3.UseSSL = &b
	case "lock.backend":
		c.Lock.Backend = value
	case "lock.redis_url":
		c.Lock.RedisURL = value
	case "lock.ttl":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: lock.ttl must be a duration such as 30s", ErrInvalidValue)
		}
		c.Lock.TTL = value
	case "match.threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: match.threshold must be a number between 0 and 1", ErrInvalidValue)
		}
		c.Match.Threshold = &f
	case "limits.max_content":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: limits.max_content must be a positive integer", ErrInvalidValue)
		}
		c.Limits.MaxContent = &n
	case "limits.preview_length":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: limits.preview_length must be a positive integer", ErrInvalidValue)
		}
		c.Limits.PreviewLength = &n
	case "limits.timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: limits.timeout must be a duration such as 10s", ErrInvalidValue)
		}
		c.Limits.Timeout = value
	case "log.format":
		c.Log.Format = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// All returns all configuration values as a map. Secrets are masked.
func (c *Config) All() map[string]string {
	out := make(map[string]string, len(ValidKeys()))
	for _, k := range ValidKeys() {
		v, _ := c.Get(k)
		if v != "" && slices.Contains(secretKeys, k) {
			v = "********"
		}
		out[k] = v
	}
	return out
}

// IsSet returns true if the key has an explicit value (not just defaults).
func (c *Config) IsSet(key string) bool {
	switch key {
	case "user.id":
		return c.User.ID != ""
	case "store.driver":
		return c.Store.Driver != ""
	case "store.dsn":
		return c.Store.DSN != ""
	case "blob.backend":
		return c.Blob.Backend != ""
	case "blob.dir":
		return c.Blob.Dir != ""
	case "blob.s3.endpoint":
		return c.Blob.S3.Endpoint != ""
	case "blob.s3.bucket":
		return c.Blob.S3.Bucket != ""
	case "blob.s3.access_key":
		return c.Blob.S3.AccessKey != ""
	case "blob.s3.secret_key":
		return c.Blob.S3.SecretKey != ""
	case "blob.s3.region":
		return c.Blob.S3.Region != ""
	case "blob.s3.use_ssl":
		return c.Blob.S3.UseSSL != nil
	case "lock.backend":
		return c.Lock.Backend != ""
	case "lock.redis_url":
		return c.Lock.RedisURL != ""
	case "lock.ttl":
		return c.Lock.TTL != ""
	case "match.threshold":
		return c.Match.Threshold != nil
	case "limits.max_content":
		return c.Limits.MaxContent != nil
	case "limits.preview_length":
		return c.Limits.PreviewLength != nil
	case "limits.timeout":
		return c.Limits.Timeout != ""
	case "log.format":
		return c.Log.Format != ""
	default:
		return false
	}
}
