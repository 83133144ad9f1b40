package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/socauth/pkg/cryptox"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                  string        `yaml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `yaml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `yaml:"log_format"`            // Log format (json, text) (default: json)
	Port                 int           `yaml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"` // Idle session sweep interval (default: 15m, 0 disables)

	BootstrapToken string `yaml:"bootstrap_token"` // Optional: enables POST /v1/bootstrap while no users exist
	PepperFile     string `yaml:"pepper_file"`     // Optional: path to the password pepper (default: ./pepper)

	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Password PasswordConfig `yaml:"password"`

	MFAIssuer string `yaml:"mfa_issuer"` // Issuer shown by authenticator apps (default: SOC Dashboard)
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres (default: sqlite)
	File   string `yaml:"file"`   // SQLite database file (default: ./auth.db)

	// Postgres: either a full URL or the discrete DB_* parameters
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type SessionConfig struct {
	IdleTimeout  time.Duration `yaml:"idle_timeout"`  // default: 30m
	CookieName   string        `yaml:"cookie_name"`   // default: socauth_session
	CookieSecure bool          `yaml:"cookie_secure"` // default: true
}

type PasswordConfig struct {
	MinLength         int    `yaml:"min_length"` // default: 8
	Argon2MemoryKiB   uint32 `yaml:"argon2_memory_kib"`
	Argon2Iterations  uint32 `yaml:"argon2_iterations"`
	Argon2Parallelism uint8  `yaml:"argon2_parallelism"`
}

func defaultConfig() Config {
	return Config{
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 15 * time.Minute,
		PepperFile:           "pepper",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			File:   "auth.db",
			Port:   5432,
		},
		Session: SessionConfig{
			IdleTimeout:  30 * time.Minute,
			CookieName:   "socauth_session",
			CookieSecure: true,
		},
		Password:  PasswordConfig{MinLength: 8},
		MFAIssuer: "SOC Dashboard",
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// (AUTH_CONFIG_FILE) and the environment, in increasing precedence. A .env
// file (AUTH_ENV_FILE, default .env) is loaded into the environment first
// and never overrides variables that are already set.
func LoadConfig() (Config, error) {
	envFile := os.Getenv("AUTH_ENV_FILE")
	if err := godotenv.Load(getEnvOrDefault("AUTH_ENV_FILE", ".env")); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := defaultConfig()

	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
	cfg.BootstrapToken = getEnvOrDefault("BOOTSTRAP_TOKEN", cfg.BootstrapToken)
	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)

	cfg.Database.Driver = getEnvOrDefault("AUTH_DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.File = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.Database.File)
	cfg.Database.URL = getEnvOrDefault("AUTH_DATABASE_URL", cfg.Database.URL)
	cfg.Database.Host = getEnvOrDefault("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvIntOrDefault("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnvOrDefault("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnvOrDefault("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnvOrDefault("DB_DATABASE", cfg.Database.Name)
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Session.IdleTimeout = getEnvDurationOrDefault("AUTH_SESSION_IDLE_TIMEOUT", cfg.Session.IdleTimeout)
	cfg.Session.CookieName = getEnvOrDefault("AUTH_SESSION_COOKIE_NAME", cfg.Session.CookieName)
	cfg.Session.CookieSecure = getEnvBoolOrDefault("AUTH_SESSION_COOKIE_SECURE", cfg.Session.CookieSecure)

	cfg.MFAIssuer = getEnvOrDefault("AUTH_MFA_ISSUER", cfg.MFAIssuer)
	cfg.Password.MinLength = getEnvIntOrDefault("AUTH_PASSWORD_MIN_LENGTH", cfg.Password.MinLength)
	cfg.Password.Argon2MemoryKiB = uint32(getEnvIntOrDefault("AUTH_ARGON2_MEMORY_KIB", int(cfg.Password.Argon2MemoryKiB)))
	cfg.Password.Argon2Iterations = uint32(getEnvIntOrDefault("AUTH_ARGON2_ITERATIONS", int(cfg.Password.Argon2Iterations)))
	cfg.Password.Argon2Parallelism = uint8(getEnvIntOrDefault("AUTH_ARGON2_PARALLELISM", int(cfg.Password.Argon2Parallelism)))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.Session.IdleTimeout <= 0:
		return errors.New("session idle timeout must be positive")
	case c.Session.CookieName == "":
		return errors.New("session cookie name is required")
	case c.Password.MinLength < 0:
		return errors.New("password min length cannot be negative")
	case c.Password.Argon2MemoryKiB > cryptox.MaxMemory || c.Password.Argon2Iterations > cryptox.MaxIterations:
		return fmt.Errorf("argon2 parameters exceed m=%d, t=%d", cryptox.MaxMemory, cryptox.MaxIterations)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.File == "" {
			return errors.New("sqlite driver requires AUTH_DATABASE_FILE")
		}
	case DriverPostgres:
		if c.Database.URL == "" && (c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "") {
			return errors.New("postgres driver requires AUTH_DATABASE_URL or DB_HOST, DB_USER and DB_DATABASE")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}

// PostgresDSN returns the configured URL, or one built from the discrete
// parameters.
func (d DatabaseConfig) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return postgres.ConnParams{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Name,
		SSLMode:  d.SSLMode,
	}.DSN()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
