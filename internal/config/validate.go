package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks that every configured value is within acceptable bounds.
// Unset values are valid; defaults apply to them.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"store", c.Store.Validate},
		{"blob", c.Blob.Validate},
		{"lock", c.Lock.Validate},
		{"match", c.Match.Validate},
		{"limits", c.Limits.Validate},
		{"log", c.Log.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, ch.name, err)
		}
	}
	return nil
}

// Validate validates the store configuration.
func (s Store) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.In("sqlite", "postgres")),
		validation.Field(&s.DSN, validation.When(s.Driver == "postgres", validation.Required)),
	)
}

// Validate validates the blob configuration. The S3 settings are only
// checked when the s3 backend is selected.
func (b Blob) Validate() error {
	if err := validation.ValidateStruct(&b,
		validation.Field(&b.Backend, validation.In("fs", "s3", "memory")),
	); err != nil {
		return err
	}
	if b.Backend != "s3" {
		return nil
	}
	s3 := b.S3
	return validation.ValidateStruct(&s3,
		validation.Field(&s3.Endpoint, validation.Required),
		validation.Field(&s3.Bucket, validation.Required, validation.Length(3, 63)),
	)
}

// Validate validates the lock configuration.
func (l Lock) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Backend, validation.In("local", "redis")),
		validation.Field(&l.RedisURL, validation.When(l.Backend == "redis", validation.Required)),
		validation.Field(&l.TTL, validation.By(positiveDuration)),
	)
}

// Validate validates the match configuration.
func (m Match) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Threshold, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Validate validates the limits configuration.
func (l Limits) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.MaxContent, validation.Min(int64(1)), validation.Max(int64(MaxMaxContent))),
		validation.Field(&l.PreviewLength, validation.Min(1), validation.Max(MaxPreviewLength)),
		validation.Field(&l.Timeout, validation.By(positiveDuration)),
	)
}

// Validate validates the log configuration.
func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

// positiveDuration accepts an empty string or a Go duration above zero.
func positiveDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration such as 30s")
	}
	if d <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}
