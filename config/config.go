package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Debug     bool   `yaml:"debug"`
	StoreType string `yaml:"store"` // postgres | memory
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	SSLMode  string `yaml:"sslmode"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
}

// DSN returns a lib/pq connection URL.
func (d DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Passwd),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type LogConfig struct {
	Mode       string `yaml:"mode"` // development | production
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type ReportConfig struct {
	LowStockThreshold int `yaml:"low_stock_threshold"`
	RecentLimit       int `yaml:"recent_limit"`
}

// AdminConfig is the bootstrap admin created when the admins table is empty.
type AdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type AppConfig struct {
	System   SysConfig    `yaml:"system"`
	Database DBConfig     `yaml:"database"`
	Logger   LogConfig    `yaml:"logger"`
	Reports  ReportConfig `yaml:"reports"`
	Admin    AdminConfig  `yaml:"admin"`
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.System.Host, c.System.Port)
}

func Default() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Host:      "0.0.0.0",
			Port:      8082,
			StoreType: "postgres",
		},
		Database: DBConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "storefront",
			User:     "postgres",
			Passwd:   "password",
			SSLMode:  "disable",
			MaxConn:  20,
			IdleConn: 5,
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/log/storefront/storefront.log",
		},
		Reports: ReportConfig{
			LowStockThreshold: 5,
			RecentLimit:       5,
		},
		Admin: AdminConfig{
			Username: "admin",
			Email:    "admin@localhost",
			Password: "admin",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies STOREFRONT_*
// environment overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.System.Port <= 0 || c.System.Port > 65535 {
		return fmt.Errorf("invalid system.port %d", c.System.Port)
	}
	switch c.System.StoreType {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid system.store %q", c.System.StoreType)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *AppConfig, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := cast.ToIntE(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := cast.ToBoolE(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	str("STOREFRONT_HOST", &cfg.System.Host)
	num("STOREFRONT_PORT", &cfg.System.Port)
	flag("STOREFRONT_DEBUG", &cfg.System.Debug)
	str("STOREFRONT_STORE", &cfg.System.StoreType)

	str("STOREFRONT_DB_HOST", &cfg.Database.Host)
	num("STOREFRONT_DB_PORT", &cfg.Database.Port)
	str("STOREFRONT_DB_NAME", &cfg.Database.Name)
	str("STOREFRONT_DB_USER", &cfg.Database.User)
	str("STOREFRONT_DB_PASSWD", &cfg.Database.Passwd)
	str("STOREFRONT_DB_SSLMODE", &cfg.Database.SSLMode)
	num("STOREFRONT_DB_MAX_CONN", &cfg.Database.MaxConn)
	num("STOREFRONT_DB_IDLE_CONN", &cfg.Database.IdleConn)

	str("STOREFRONT_LOG_MODE", &cfg.Logger.Mode)
	flag("STOREFRONT_LOG_FILE_ENABLE", &cfg.Logger.FileEnable)
	str("STOREFRONT_LOG_FILENAME", &cfg.Logger.Filename)

	num("STOREFRONT_LOW_STOCK_THRESHOLD", &cfg.Reports.LowStockThreshold)
	num("STOREFRONT_RECENT_LIMIT", &cfg.Reports.RecentLimit)

	str("STOREFRONT_ADMIN_USERNAME", &cfg.Admin.Username)
	str("STOREFRONT_ADMIN_EMAIL", &cfg.Admin.Email)
	str("STOREFRONT_ADMIN_PASSWORD", &cfg.Admin.Password)
}
