// Package config loads service configuration.
//
// Values are resolved in this order, later sources winning:
//   - built-in defaults
//   - an optional YAML file (--config flag or APP_CONFIG)
//   - a .env file in the working directory, if present
//   - process environment variables
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string         `yaml:"environment"`
	HTTP        HTTPConfig     `yaml:"http"`
	Database    DatabaseConfig `yaml:"database"`
	Session     SessionConfig  `yaml:"session"`
	Auth        AuthConfig     `yaml:"auth"`
	Log         LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is one of postgres (lib/pq), pgx or sqlite.
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the database file for the sqlite driver.
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type SessionConfig struct {
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	CookieName   string        `yaml:"cookie_name"`
	HashKey      string        `yaml:"hash_key"`
	BlockKey     string        `yaml:"block_key"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

func Default() Config {
	return Config{
		Environment: "development",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "",
			Name:            "student_management",
			SSLMode:         "disable",
			Path:            "student_management.db",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Session: SessionConfig{
			IdleTimeout: 30 * time.Minute,
			CookieName:  "app-session",
		},
		Auth: AuthConfig{
			BcryptCost: 12,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), .env and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("APP_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)

	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	db := &cfg.Database
	db.Driver = getEnv("DB_DRIVER", db.Driver)
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnv("DB_PORT", db.Port)
	db.User = getEnv("DB_USER", db.User)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.Name = getEnv("DB_NAME", db.Name)
	db.SSLMode = getEnv("DB_SSLMODE", db.SSLMode)
	db.Path = getEnv("DB_PATH", db.Path)

	var err error
	if db.AutoMigrate, err = getEnvBool("DB_AUTO_MIGRATE", db.AutoMigrate); err != nil {
		return err
	}

	s := &cfg.Session
	if s.IdleTimeout, err = getEnvDuration("SESSION_IDLE_TIMEOUT", s.IdleTimeout); err != nil {
		return err
	}
	s.CookieName = getEnv("SESSION_COOKIE_NAME", s.CookieName)
	s.HashKey = getEnv("SESSION_HASH_KEY", s.HashKey)
	s.BlockKey = getEnv("SESSION_BLOCK_KEY", s.BlockKey)
	if s.CookieSecure, err = getEnvBool("SESSION_COOKIE_SECURE", s.CookieSecure); err != nil {
		return err
	}

	if cost, ok := os.LookupEnv("BCRYPT_COST"); ok && cost != "" {
		n, err := strconv.Atoi(cost)
		if err != nil {
			return fmt.Errorf("config: BCRYPT_COST: %w", err)
		}
		cfg.Auth.BcryptCost = n
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	return nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		return errors.New("config: sqlite driver needs a database path")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("config: session idle timeout must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("config: session cookie name is empty")
	}
	switch len(c.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return errors.New("config: session block key must be 16, 24 or 32 bytes")
	}
	// bcrypt accepts 4..31.
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("config: bcrypt cost %d out of range", c.Auth.BcryptCost)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case DriverSQLite:
		return "file:" + d.Path +
			"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	case DriverPgx:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     net.JoinHostPort(d.Host, d.Port),
			Path:     "/" + d.Name,
			RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
		}
		return u.String()
	default:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
