package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ehr/patients/pkg/pagination"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Log formats. An empty LOG_FORMAT means console in development and json
// elsewhere.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
	LogFormatECS     = "ecs"
)

// Config is the patient-server configuration.
type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`
	DBDriver       string        `mapstructure:"DB_DRIVER"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	SQLitePath     string        `mapstructure:"SQLITE_PATH"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	MetricsEnabled bool          `mapstructure:"METRICS_ENABLED"`
}

var serverKeys = []string{
	"PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT", "DB_DRIVER", "DATABASE_URL", "DB_MAX_CONNS",
	"DB_MIN_CONNS", "SQLITE_PATH", "CORS_ORIGINS", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "BODY_LIMIT", "METRICS_ENABLED",
}

func newViper(keys []string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()
	// Bind explicitly so Unmarshal sees env-only values.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads .env (if present) and the environment. It does not validate;
// call Validate before using the result.
func Load() (*Config, error) {
	v := newViper(serverKeys)

	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SQLITE_PATH", "data/patients.db")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("METRICS_ENABLED", true)

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// EffectiveLogFormat resolves an empty LOG_FORMAT from ENV.
func (c *Config) EffectiveLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if c.IsDev() {
		return LogFormatConsole
	}
	return LogFormatJSON
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is %q", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER is %q", DriverSQLite)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	switch c.LogFormat {
	case "", LogFormatJSON, LogFormatConsole, LogFormatECS:
	default:
		return fmt.Errorf("LOG_FORMAT must be %q, %q or %q, got %q", LogFormatJSON, LogFormatConsole, LogFormatECS, c.LogFormat)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}
	return nil
}

// RateLimitEnabled is false when RATE_LIMIT_RPS is 0.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// ClientConfig configures patientctl. Flags override every field.
type ClientConfig struct {
	APIURL   string        `mapstructure:"PATIENT_API_URL"`
	Timeout  time.Duration `mapstructure:"PATIENT_API_TIMEOUT"`
	PageSize int           `mapstructure:"PAGE_SIZE"`
	LogLevel string        `mapstructure:"LOG_LEVEL"`
}

func LoadClient() (*ClientConfig, error) {
	v := newViper([]string{"PATIENT_API_URL", "PATIENT_API_TIMEOUT", "PAGE_SIZE", "LOG_LEVEL"})

	v.SetDefault("PATIENT_API_URL", "http://localhost:3000")
	v.SetDefault("PATIENT_API_TIMEOUT", "10s")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("LOG_LEVEL", "warn")

	_ = v.ReadInConfig()

	cfg := &ClientConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal client config: %w", err)
	}
	if cfg.PageSize <= 0 || cfg.PageSize > pagination.MaxPageSize {
		return nil, fmt.Errorf("PAGE_SIZE must be between 1 and %d, got %d", pagination.MaxPageSize, cfg.PageSize)
	}
	return cfg, nil
}

func splitList(parsed []string, raw string) []string {
	if len(parsed) == 1 && strings.Contains(parsed[0], ",") {
		parsed = nil
	}
	if parsed == nil && raw != "" {
		parsed = strings.Split(raw, ",")
	}
	out := parsed[:0]
	for _, s := range parsed {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
