package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/email-vetter/internal/reputation"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-vetter/")
	v.AddConfigPath("$HOME/.email-vetter")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit file path
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("EMAIL_VETTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Vetting defaults
	v.SetDefault("vetting.mode", "fast")
	v.SetDefault("vetting.limit", 0)
	v.SetDefault("vetting.concurrency", 10)
	v.SetDefault("vetting.batch_timeout", "0s")

	// Reputation defaults
	v.SetDefault("reputation.disposable_domains", reputation.DefaultDisposableDomains)
	v.SetDefault("reputation.trusted_domains", reputation.DefaultTrustedDomains)
	v.SetDefault("reputation.allowlist", []string{})
	v.SetDefault("reputation.disposable_file", "")
	v.SetDefault("reputation.suspicious_patterns", reputation.DefaultSuspiciousPatterns)

	// DNS defaults
	v.SetDefault("dns.resolver", "direct")
	v.SetDefault("dns.nameservers", []string{})
	v.SetDefault("dns.timeout", "3s")

	// Probe defaults
	v.SetDefault("probe.port", 25)
	v.SetDefault("probe.timeout", "5s")

	// Server defaults
	v.SetDefault("server.frontend_type", "http")
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.body_guard", "strict")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// CLI frontend defaults
	v.SetDefault("cli.pretty", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_frequency", "10m")
	v.SetDefault("cache.sqlite_path", "/data/verdict_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/email_vetter")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.preview_size", 64)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// Set overrides a configuration value
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
