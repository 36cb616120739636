// Package config provides configuration loading and validation for Rampart.
package config

// Config is the top-level configuration for Rampart.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Identity configures client identity hashing.
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity"`

	// Categories defines the rate limit policy per category.
	// When empty, the built-in defaults (api, search, contact, auth) apply.
	Categories []CategoryConfig `yaml:"categories" mapstructure:"categories" validate:"omitempty,dive"`

	// Violations configures the bounded violation log.
	Violations ViolationConfig `yaml:"violations" mapstructure:"violations"`

	// Cleanup configures the background sweeper.
	Cleanup CleanupConfig `yaml:"cleanup" mapstructure:"cleanup"`

	// Admin configures the observability API.
	Admin AdminConfig `yaml:"admin" mapstructure:"admin"`

	// DevMode enables development features: debug logging and a default
	// hash salt when identity.hash_salt is unset.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:8080").
	// Defaults to "127.0.0.1:8080" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// IdentityConfig configures client identity hashing.
type IdentityConfig struct {
	// HashSalt is the secret salt for the one-way identity digest.
	// Required when dev_mode is false; missing salt is a startup fault,
	// never a per-request degradation.
	HashSalt string `yaml:"hash_salt" mapstructure:"hash_salt"`
}

// CategoryConfig defines the rate limit policy for one category.
type CategoryConfig struct {
	// Name is the unique category name referenced by callers.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// Capacity is the bucket capacity (maximum burst).
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"required,min=1"`

	// RefillEvery is the interval at which one token accrues (e.g., "10s"
	// means 1 token per 10 seconds).
	RefillEvery string `yaml:"refill_every" mapstructure:"refill_every" validate:"required,duration"`
}

// ViolationConfig configures the bounded violation log.
type ViolationConfig struct {
	// MaxEntries bounds the log; insertion beyond it evicts the oldest
	// records. Defaults to 1000.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries" validate:"omitempty,min=1"`

	// Retention is how long violation records are kept before the sweeper
	// evicts them (e.g., "24h"). Defaults to "24h".
	Retention string `yaml:"retention" mapstructure:"retention" validate:"omitempty,duration"`
}

// CleanupConfig configures the background sweeper.
type CleanupConfig struct {
	// Interval is how often the sweeper runs (e.g., "5m"). Defaults to "5m".
	Interval string `yaml:"interval" mapstructure:"interval" validate:"omitempty,duration"`

	// BucketMaxAge is the idle age after which a bucket is evicted
	// (e.g., "1h"). Defaults to "1h".
	BucketMaxAge string `yaml:"bucket_max_age" mapstructure:"bucket_max_age" validate:"omitempty,duration"`
}

// AdminConfig configures the observability API.
type AdminConfig struct {
	// TokenHash is the argon2id hash of the admin bearer token.
	// When empty, only localhost requests may use the admin API.
	TokenHash string `yaml:"token_hash" mapstructure:"token_hash"`
}

// SetDefaults applies default values for optional fields.
func (c *Config) SetDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if len(c.Categories) == 0 {
		c.Categories = []CategoryConfig{
			{Name: "api", Capacity: 60, RefillEvery: "10s"},
			{Name: "search", Capacity: 30, RefillEvery: "20s"},
			{Name: "contact", Capacity: 5, RefillEvery: "60s"},
			{Name: "auth", Capacity: 10, RefillEvery: "30s"},
		}
	}
	if c.Violations.MaxEntries == 0 {
		c.Violations.MaxEntries = 1000
	}
	if c.Violations.Retention == "" {
		c.Violations.Retention = "24h"
	}
	if c.Cleanup.Interval == "" {
		c.Cleanup.Interval = "5m"
	}
	if c.Cleanup.BucketMaxAge == "" {
		c.Cleanup.BucketMaxAge = "1h"
	}
}

// SetDevDefaults applies permissive defaults for dev mode.
// Must run after SetDefaults and before Validate.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	c.Server.LogLevel = "debug"
	if c.Identity.HashSalt == "" {
		c.Identity.HashSalt = "rampart-dev-salt"
	}
}

// Redacted returns a copy of the config with secrets blanked, for the
// admin config export.
func (c *Config) Redacted() Config {
	out := *c
	if out.Identity.HashSalt != "" {
		out.Identity.HashSalt = "[redacted]"
	}
	if out.Admin.TokenHash != "" {
		out.Admin.TokenHash = "[redacted]"
	}
	// Slices are shared with the original; copy before callers marshal.
	out.Categories = make([]CategoryConfig, len(c.Categories))
	copy(out.Categories, c.Categories)
	return out
}
