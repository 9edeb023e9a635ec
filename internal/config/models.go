package config

import (
	"fmt"
	"time"

	"github.com/mikey/email-vetter/internal/core"
)

// VettingConfig represents the classifier and batch configuration
type VettingConfig struct {
	Mode         string
	Limit        int
	Concurrency  int
	BatchTimeout time.Duration
}

// ReputationConfig represents the static domain lists
type ReputationConfig struct {
	DisposableDomains  []string
	TrustedDomains     []string
	Allowlist          []string
	DisposableFile     string
	SuspiciousPatterns []string
}

// DNSConfig represents the MX resolver configuration
type DNSConfig struct {
	Resolver    string
	Nameservers []string
	Timeout     time.Duration
}

// ProbeConfig represents the SMTP probe configuration
type ProbeConfig struct {
	Port    int
	Timeout time.Duration
}

// ServerConfig represents the frontend configuration
type ServerConfig struct {
	FrontendType   string
	ListenAddress  string
	BodyGuard      string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
}

// CacheConfig represents the verdict cache configuration
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
}

// GetVetting returns the vetting configuration
func (c *Config) GetVetting() (VettingConfig, error) {
	batchTimeout, err := c.GetDuration("vetting.batch_timeout")
	if err != nil {
		return VettingConfig{}, err
	}
	return VettingConfig{
		Mode:         c.GetString("vetting.mode"),
		Limit:        c.GetInt("vetting.limit"),
		Concurrency:  c.GetInt("vetting.concurrency"),
		BatchTimeout: batchTimeout,
	}, nil
}

// GetReputation returns the reputation list configuration
func (c *Config) GetReputation() ReputationConfig {
	return ReputationConfig{
		DisposableDomains:  c.GetStringSlice("reputation.disposable_domains"),
		TrustedDomains:     c.GetStringSlice("reputation.trusted_domains"),
		Allowlist:          c.GetStringSlice("reputation.allowlist"),
		DisposableFile:     c.GetString("reputation.disposable_file"),
		SuspiciousPatterns: c.GetStringSlice("reputation.suspicious_patterns"),
	}
}

// GetDNS returns the resolver configuration
func (c *Config) GetDNS() (DNSConfig, error) {
	timeout, err := c.GetDuration("dns.timeout")
	if err != nil {
		return DNSConfig{}, err
	}
	return DNSConfig{
		Resolver:    c.GetString("dns.resolver"),
		Nameservers: c.GetStringSlice("dns.nameservers"),
		Timeout:     timeout,
	}, nil
}

// GetProbe returns the probe configuration
func (c *Config) GetProbe() (ProbeConfig, error) {
	timeout, err := c.GetDuration("probe.timeout")
	if err != nil {
		return ProbeConfig{}, err
	}
	return ProbeConfig{
		Port:    c.GetInt("probe.port"),
		Timeout: timeout,
	}, nil
}

// GetServer returns the frontend configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	writeTimeout, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		FrontendType:   c.GetString("server.frontend_type"),
		ListenAddress:  c.GetString("server.listen_address"),
		BodyGuard:      c.GetString("server.body_guard"),
		AllowedOrigins: c.GetStringSlice("server.allowed_origins"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		MaxBodyBytes:   int64(c.GetInt("server.max_body_bytes")),
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		RedisAddr:        c.GetString("cache.redis_addr"),
		RedisPassword:    c.GetString("cache.redis_password"),
		RedisDB:          c.GetInt("cache.redis_db"),
	}, nil
}

// GetOptions assembles classifier options from the vetting, dns, probe and
// cache sections
func (c *Config) GetOptions() (core.Options, error) {
	vetting, err := c.GetVetting()
	if err != nil {
		return core.Options{}, err
	}
	mode, err := core.ParseMode(vetting.Mode)
	if err != nil {
		return core.Options{}, err
	}
	dns, err := c.GetDNS()
	if err != nil {
		return core.Options{}, err
	}
	probe, err := c.GetProbe()
	if err != nil {
		return core.Options{}, err
	}
	cache, err := c.GetCache()
	if err != nil {
		return core.Options{}, err
	}

	opts := core.Options{
		Mode:          mode,
		Limit:         vetting.Limit,
		Concurrency:   vetting.Concurrency,
		BatchTimeout:  vetting.BatchTimeout,
		LookupTimeout: dns.Timeout,
		ProbeTimeout:  probe.Timeout,
		CacheEnabled:  cache.Enabled,
		CacheTTL:      cache.TTL,
	}
	validated, err := opts.Validate()
	if err != nil {
		return core.Options{}, fmt.Errorf("invalid vetting configuration: %w", err)
	}
	return validated, nil
}
