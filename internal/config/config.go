// Package config loads the service configuration from file and
// environment. Environment variables use the SNSDM_ prefix with
// underscores for nesting (SNSDM_DATABASE_DSN, SNSDM_JWT_SECRET, ...).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug / release / test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	// AutoMigrate 启动时自动应用 migrations/ 下的 SQL。
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// XProviderConfig is the X (Twitter) OAuth 1.0a app registration.
type XProviderConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key"`
	ConsumerSecret string `mapstructure:"consumer_secret"`
	ProxyURL       string `mapstructure:"proxy_url"`
}

// AppProviderConfig is a placeholder provider registration (authorize
// URL only, no token exchange).
type AppProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	AuthorizeURL string `mapstructure:"authorize_url"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type ProvidersConfig struct {
	X         XProviderConfig   `mapstructure:"x"`
	Instagram AppProviderConfig `mapstructure:"instagram"`
	Threads   AppProviderConfig `mapstructure:"threads"`
	TikTok    AppProviderConfig `mapstructure:"tiktok"`
}

type AppConfig struct {
	// PublicBaseURL is this service's externally reachable base URL;
	// the OAuth callback is built from it.
	PublicBaseURL string `mapstructure:"public_base_url"`
	// FrontendURL receives non-X callback redirects.
	FrontendURL string `mapstructure:"frontend_url"`
}

type RateLimitConfig struct {
	// ConnectPerMinute caps connect/callback attempts per client IP.
	ConnectPerMinute int `mapstructure:"connect_per_minute"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Providers ProvidersConfig `mapstructure:"providers"`
	App       AppConfig       `mapstructure:"app"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// Load reads the configuration. path may name a config file directly;
// when empty, config.yaml is searched in the working directory and
// /etc/snsdm. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SNSDM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/snsdm")
	}

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时允许纯环境变量运行
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Providers.X.ConsumerKey == "" || c.Providers.X.ConsumerSecret == "" {
		return fmt.Errorf("providers.x consumer credentials are required")
	}
	return nil
}

// XCallbackURL builds the oauth_callback registered with X.
func (c *Config) XCallbackURL() string {
	return strings.TrimSuffix(c.App.PublicBaseURL, "/") + "/callback/x"
}

// Addr is the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// 空默认值用于把可由环境变量覆盖的键注册给 viper
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("providers.x.consumer_key", "")
	v.SetDefault("providers.x.consumer_secret", "")
	v.SetDefault("providers.x.proxy_url", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("jwt.issuer", "snsdm")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("app.public_base_url", "http://localhost:8080")
	v.SetDefault("app.frontend_url", "http://localhost:3000")
	v.SetDefault("rate_limit.connect_per_minute", 10)
}
