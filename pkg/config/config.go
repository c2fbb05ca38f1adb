package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSourceURL is the DSN-val download page on net-entreprises.fr.
const DefaultSourceURL = "https://www.net-entreprises.fr/declaration/outils-de-controle-dsn-val/"

// DefaultPort is used when PORT is unset or not a valid port number.
const DefaultPort = 8000

// Config stores all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	SourceURL string `mapstructure:"SOURCE_URL"`
	Selection string `mapstructure:"SELECTION"`
	MonthMode string `mapstructure:"MONTH_MODE"`

	CacheEnabled    bool   `mapstructure:"CACHE_ENABLED"`
	CacheTTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS"`
	CacheBackend    string `mapstructure:"CACHE_BACKEND"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	Fetcher               string  `mapstructure:"FETCHER"`
	FetchTimeoutSeconds   int     `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	FetchRatePerSecond    float64 `mapstructure:"FETCH_RATE_PER_SECOND"`
	TLSInsecureSkipVerify bool    `mapstructure:"TLS_INSECURE_SKIP_VERIFY"`
	Proxies               string  `mapstructure:"PROXIES"`
	UserAgents            string  `mapstructure:"USER_AGENTS"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("PORT", strconv.Itoa(DefaultPort))
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SOURCE_URL", DefaultSourceURL)
	v.SetDefault("SELECTION", "latest")
	v.SetDefault("MONTH_MODE", "strict")
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("FETCHER", "http")
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 30)
	v.SetDefault("FETCH_RATE_PER_SECOND", 0)
	v.SetDefault("TLS_INSECURE_SKIP_VERIFY", false)
	v.SetDefault("PROXIES", "")
	v.SetDefault("USER_AGENTS", "")
}

// NewViper returns a viper instance reading a .env file and environment
// variables, with every default registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = v.ReadInConfig()

	SetDefaults(v)
	return v
}

// Load reads configuration from a .env file and environment variables.
func Load() (*Config, error) {
	return FromViper(NewViper())
}

// FromViper decodes a configured viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.CacheTTLSeconds <= 0 {
		return nil, fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %d", cfg.CacheTTLSeconds)
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive, got %d", cfg.FetchTimeoutSeconds)
	}
	return &cfg, nil
}

// ServerPort returns the listening port, falling back to DefaultPort when
// PORT is unset or unparseable.
func (c *Config) ServerPort() int {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return DefaultPort
	}
	return p
}

// CacheTTL returns the cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// FetchTimeout returns the per-fetch deadline.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ProxyList splits PROXIES on commas.
func (c *Config) ProxyList() []string {
	return splitList(c.Proxies)
}

// UserAgentList splits USER_AGENTS on "|" since agent strings contain commas.
func (c *Config) UserAgentList() []string {
	var out []string
	for _, ua := range strings.Split(c.UserAgents, "|") {
		if ua = strings.TrimSpace(ua); ua != "" {
			out = append(out, ua)
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
