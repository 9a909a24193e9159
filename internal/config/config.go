// Package config loads settings for the console and the reference users API
// from configs/*.yml, an optional .env file and prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Console is the configuration of the admin console.
type Console struct {
	Port       string
	APIBaseURL string
	LogLevel   string

	Session SessionConfig

	DeleteErrorTTL    time.Duration
	LiveInterval      time.Duration
	ControllerIdleTTL time.Duration

	SignInRate  float64
	SignInBurst int
}

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	Driver       string // sqlite | memory
	DBPath       string
	CookieName   string
	CookieSecure bool
	MaxAge       time.Duration // cookie lifetime; older sqlite rows are pruned
}

// DevAPI is the configuration of the reference users API.
type DevAPI struct {
	Port     string
	DBPath   string
	LogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	Admin AdminConfig
}

// AdminConfig is the account seeded on first start.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

const (
	SessionDriverSQLite = "sqlite"
	SessionDriverMemory = "memory"
)

// LoadConsole reads configs/console.yml (when present) from dir and applies
// CONSOLE_* environment overrides, e.g. CONSOLE_API_BASE_URL.
func LoadConsole(dir string) (Console, error) {
	v, err := newViper(dir, "console", "CONSOLE")
	if err != nil {
		return Console{}, err
	}
	v.SetDefault("port", "8081")
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("session.driver", SessionDriverSQLite)
	v.SetDefault("session.db_path", "console.db")
	v.SetDefault("session.cookie_name", "console_sid")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.max_age", "720h")
	v.SetDefault("console.delete_error_ttl", "3s")
	v.SetDefault("console.live_interval", "5s")
	v.SetDefault("console.controller_idle_ttl", "30m")
	v.SetDefault("signin.rate", 2)
	v.SetDefault("signin.burst", 20)

	cfg := Console{
		Port:       v.GetString("port"),
		APIBaseURL: strings.TrimRight(v.GetString("api.base_url"), "/"),
		LogLevel:   v.GetString("log.level"),
		Session: SessionConfig{
			Driver:       strings.ToLower(v.GetString("session.driver")),
			DBPath:       v.GetString("session.db_path"),
			CookieName:   v.GetString("session.cookie_name"),
			CookieSecure: v.GetBool("session.cookie_secure"),
			MaxAge:       v.GetDuration("session.max_age"),
		},
		DeleteErrorTTL:    v.GetDuration("console.delete_error_ttl"),
		LiveInterval:      v.GetDuration("console.live_interval"),
		ControllerIdleTTL: v.GetDuration("console.controller_idle_ttl"),
		SignInRate:        v.GetFloat64("signin.rate"),
		SignInBurst:       v.GetInt("signin.burst"),
	}
	if cfg.APIBaseURL == "" {
		return Console{}, errors.New("api.base_url is required")
	}
	if cfg.Session.MaxAge <= 0 {
		return Console{}, errors.New("session.max_age must be positive")
	}
	switch cfg.Session.Driver {
	case SessionDriverSQLite, SessionDriverMemory:
	default:
		return Console{}, fmt.Errorf("unknown session.driver %q", cfg.Session.Driver)
	}
	return cfg, nil
}

// LoadDevAPI reads configs/devapi.yml (when present) from dir and applies
// DEVAPI_* environment overrides.
func LoadDevAPI(dir string) (DevAPI, error) {
	v, err := newViper(dir, "devapi", "DEVAPI")
	if err != nil {
		return DevAPI{}, err
	}
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "devapi.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.ttl", "1h")
	v.SetDefault("admin.name", "admin")
	v.SetDefault("admin.email", "admin@example.com")

	cfg := DevAPI{
		Port:      v.GetString("port"),
		DBPath:    v.GetString("db.path"),
		LogLevel:  v.GetString("log.level"),
		JWTSecret: v.GetString("jwt.secret"),
		JWTTTL:    v.GetDuration("jwt.ttl"),
		Admin: AdminConfig{
			Name:     v.GetString("admin.name"),
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}
	if cfg.JWTSecret == "" {
		return DevAPI{}, errors.New("jwt.secret is required")
	}
	if cfg.Admin.Password == "" {
		return DevAPI{}, errors.New("admin.password is required")
	}
	return cfg, nil
}

func newViper(dir, name, envPrefix string) (*viper.Viper, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s config: %w", name, err)
		}
	}
	return v, nil
}

// loadDotEnv loads .env from the working directory; a missing file is fine.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
