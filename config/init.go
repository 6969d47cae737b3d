package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the storefront client configuration.
type Config struct {
	Server struct {
		Address     string `mapstructure:"address"`     // 0.0.0.0
		HTTPPort    string `mapstructure:"http_port"`   // 8080
		Environment string `mapstructure:"environment"` // development|production
		PublicURL   string `mapstructure:"public_url"`  // base for public QR links (/qr/{slug})
	} `mapstructure:"server"`

	API struct {
		BaseURL  string        `mapstructure:"base_url"` // backend, e.g. http://localhost:3002
		Timeout  time.Duration `mapstructure:"timeout"`
		Platform string        `mapstructure:"platform"` // platform tag sent with auth calls
	} `mapstructure:"api"`

	Session struct {
		Secret        string        `mapstructure:"secret"`         // cookie signing key, >= 32 bytes
		TokenCookie   string        `mapstructure:"token_cookie"`   // authToken
		BrowserCookie string        `mapstructure:"browser_cookie"` // browser-session id (drafts)
		TokenMaxAge   time.Duration `mapstructure:"token_max_age"`  // 3h
	} `mapstructure:"session"`

	Drafts struct {
		Driver string        `mapstructure:"driver"` // memory|postgres|mysql|redis|bolt
		DSN    string        `mapstructure:"dsn"`    // db dsn, redis url or bolt file path
		TTL    time.Duration `mapstructure:"ttl"`    // idle lifetime of a draft
		Sweep  string        `mapstructure:"sweep"`  // cron spec for expiry sweeps
	} `mapstructure:"drafts"`

	Logging struct {
		Level      string `mapstructure:"level"`  // trace|debug|info|warning|error|fatal
		Format     string `mapstructure:"format"` // text|json
		File       string `mapstructure:"file"`   // log file path; empty means stdout only
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"logs"`
}

// IsDevelopment reports whether cookies may be sent without the Secure flag.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// Load reads configuration from .env, an optional yaml file and the environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.public_url", "http://localhost:8080")

	v.SetDefault("api.base_url", "http://localhost:3002")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.platform", "WEB")

	v.SetDefault("session.secret", "CHANGE_ME")
	v.SetDefault("session.token_cookie", "authToken")
	v.SetDefault("session.browser_cookie", "qm_browser")
	v.SetDefault("session.token_max_age", 3*time.Hour)

	v.SetDefault("drafts.driver", "memory")
	v.SetDefault("drafts.dsn", "")
	v.SetDefault("drafts.ttl", 24*time.Hour)
	v.SetDefault("drafts.sweep", "@every 10m")

	v.SetDefault("logs.level", "info")
	v.SetDefault("logs.format", "text")
	v.SetDefault("logs.file", "")
	v.SetDefault("logs.max_size_mb", 64)
	v.SetDefault("logs.max_backups", 7)
	v.SetDefault("logs.max_age_days", 7)

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "qrmarket"))
		}
		v.AddConfigPath("/etc/qrmarket")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Server.PublicURL = strings.TrimRight(cfg.Server.PublicURL, "/")
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url must not be empty")
	}
	if c.Session.Secret == "CHANGE_ME" || len(c.Session.Secret) < 32 {
		return errors.New("session.secret must be set (at least 32 bytes, not CHANGE_ME)")
	}
	if c.Session.TokenMaxAge <= 0 {
		return errors.New("session.token_max_age must be positive")
	}
	switch c.Drafts.Driver {
	case "memory", "postgres", "mysql", "redis", "bolt":
	default:
		return fmt.Errorf("unsupported drafts.driver: %q", c.Drafts.Driver)
	}
	if c.Drafts.Driver != "memory" && strings.TrimSpace(c.Drafts.DSN) == "" {
		return fmt.Errorf("drafts.dsn is required for driver %q", c.Drafts.Driver)
	}
	return nil
}
