package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "article-analytics"
	defaultServicePort  = 8097
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"
	defaultDBHost       = "localhost"
	defaultDBPort       = 5432
	defaultDBName       = "article_analytics"
	defaultDBUser       = "postgres"
	defaultDBSSLMode    = "disable"

	defaultMaxRequestsPerMinute = 30
	defaultWindowSeconds        = 60

	defaultSeed          = 42
	defaultMaxRows       = 500000
	defaultReadTimeoutS  = 10
	defaultWriteTimeoutS = 60
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Port         int           `env:"ARTICLE_ANALYTICS_PORT" yaml:"port"`
	Debug        bool          `env:"APP_DEBUG"              yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_ANALYTICS_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_ANALYTICS_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_ANALYTICS_USER"     yaml:"user"`
	Password string `env:"POSTGRES_ANALYTICS_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_ANALYTICS_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_ANALYTICS_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// AnalysisConfig holds defaults for analysis requests.
type AnalysisConfig struct {
	// DefaultSeed seeds the regression split and cluster initialization
	// when a request does not supply its own.
	DefaultSeed int64 `yaml:"default_seed"`
	// MaxRows bounds the size of the observation table a single request
	// may analyze. Larger datasets are rejected before any fit runs.
	MaxRows int `yaml:"max_rows"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	MaxRequestsPerMinute int `yaml:"max_requests_per_minute"`
	WindowSeconds        int `yaml:"window_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// Load loads configuration from the specified path and applies defaults.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	setDefaults(cfg)

	// Re-apply env overrides after defaults (env always wins)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setAnalysisDefaults(&cfg.Analysis)
	setRateLimitDefaults(&cfg.RateLimit)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLoggingLevel
	}
}

// setServiceDefaults applies default values to ServiceConfig.
func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	if svc.ReadTimeout == 0 {
		svc.ReadTimeout = defaultReadTimeoutS * time.Second
	}
	if svc.WriteTimeout == 0 {
		// Report generation runs three fits back to back; give it room.
		svc.WriteTimeout = defaultWriteTimeoutS * time.Second
	}
}

// setDatabaseDefaults applies default values to DatabaseConfig.
func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

// setAnalysisDefaults applies default values to AnalysisConfig.
func setAnalysisDefaults(a *AnalysisConfig) {
	if a.DefaultSeed == 0 {
		a.DefaultSeed = defaultSeed
	}
	if a.MaxRows == 0 {
		a.MaxRows = defaultMaxRows
	}
}

// setRateLimitDefaults applies default values to RateLimitConfig.
func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxRequestsPerMinute == 0 {
		rl.MaxRequestsPerMinute = defaultMaxRequestsPerMinute
	}
	if rl.WindowSeconds == 0 {
		rl.WindowSeconds = defaultWindowSeconds
	}
}

// ValidationError reports a configuration field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the formatted validation error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{
			Field:   "service.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Service.Port),
		}
	}
	if c.Analysis.MaxRows < 1 {
		return &ValidationError{
			Field:   "analysis.max_rows",
			Message: "must be positive",
		}
	}
	return nil
}
