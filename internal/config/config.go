// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, contract
// quotas, the settlement scheduler, the oracle, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "pactkeeper")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SchedulerConfig defines the cron triggers for settlement jobs. Specs use the
// standard five-field cron syntax and are evaluated in Config.Timezone.
type SchedulerConfig struct {
	Enabled         bool   // SCHEDULER_ENABLED
	MorningBriefing string // CRON_MORNING_BRIEFING
	EveningBriefing string // CRON_EVENING_BRIEFING
	WeeklyRollover  string // CRON_WEEKLY_ROLLOVER
	AutoKeep        string // CRON_AUTO_KEEP
	Concurrency     int    // SETTLEMENT_CONCURRENCY, users settled in parallel
}

// OracleConfig defines the generative-AI collaborator settings.
type OracleConfig struct {
	APIKey  string        // GEMINI_API_KEY (empty disables the oracle)
	Model   string        // GEMINI_MODEL
	Timeout time.Duration // ORACLE_TIMEOUT per call
	RPS     float64       // ORACLE_RPS outbound pacing
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath             string // SQLite path
	Timezone           string // IANA zone used for calendar dates ("Local" allowed)
	MaxActiveContracts int    // active slot quota per user
	MaxExceptions      int    // exceptions per contract

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Settlement / collaborators
	Scheduler     SchedulerConfig
	Oracle        OracleConfig
	TelegramToken string // TELEGRAM_BOT_TOKEN (empty logs pushes instead)

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	return loadFrom(os.LookupEnv)
}

// loadFrom reads every setting through lookup. Malformed numbers, booleans
// and durations fall back to their defaults.
func loadFrom(lookup func(string) (string, bool)) (Config, error) {
	e := env(lookup)
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.duration("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           e.str("GIN_MODE", "release"),

		LogLevel:       e.str("LOG_LEVEL", "info"),
		LogPretty:      e.flag("LOG_PRETTY", false),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    e.str("API_BASE_PATH", "/api/v1"),

		DBPath:             e.str("DB_PATH", "pactkeeper.db"),
		Timezone:           e.str("TIMEZONE", "UTC"),
		MaxActiveContracts: e.integer("MAX_ACTIVE_CONTRACTS", 10),
		MaxExceptions:      e.integer("MAX_EXCEPTIONS", 5),

		RateRPS:   e.number("RATE_RPS", 5.0),
		RateBurst: e.integer("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: e.list("CORS_ALLOWED_ORIGINS"),
		},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.duration("IDEMPOTENCY_TTL", 24*time.Hour),

		Scheduler: SchedulerConfig{
			Enabled:         e.flag("SCHEDULER_ENABLED", true),
			MorningBriefing: e.str("CRON_MORNING_BRIEFING", "0 7 * * *"),
			EveningBriefing: e.str("CRON_EVENING_BRIEFING", "0 20 * * *"),
			WeeklyRollover:  e.str("CRON_WEEKLY_ROLLOVER", "5 0 * * 1"),
			AutoKeep:        e.str("CRON_AUTO_KEEP", "10 0 * * *"),
			Concurrency:     e.integer("SETTLEMENT_CONCURRENCY", 8),
		},
		Oracle: OracleConfig{
			APIKey:  e.str("GEMINI_API_KEY", ""),
			Model:   e.str("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout: e.duration("ORACLE_TIMEOUT", 30*time.Second),
			RPS:     e.number("ORACLE_RPS", 2.0),
		},
		TelegramToken: e.str("TELEGRAM_BOT_TOKEN", ""),

		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "pactkeeper"),
			SampleRatio: e.number("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) normalize() {
	c.GinMode = strings.ToLower(c.GinMode)
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	c.APIBasePath = normalizeBasePath(c.APIBasePath)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		check(false, "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(c.DBPath) != "", "DB_PATH must not be empty")
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		check(false, "TIMEZONE must be an IANA zone name or Local")
	}
	check(c.MaxActiveContracts >= 1, "MAX_ACTIVE_CONTRACTS must be >= 1")
	check(c.MaxExceptions >= 0, "MAX_EXCEPTIONS must be >= 0")
	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")

	check(c.Scheduler.Concurrency >= 1, "SETTLEMENT_CONCURRENCY must be >= 1")
	if c.Scheduler.Enabled {
		for _, s := range []struct{ env, spec string }{
			{"CRON_MORNING_BRIEFING", c.Scheduler.MorningBriefing},
			{"CRON_EVENING_BRIEFING", c.Scheduler.EveningBriefing},
			{"CRON_WEEKLY_ROLLOVER", c.Scheduler.WeeklyRollover},
			{"CRON_AUTO_KEEP", c.Scheduler.AutoKeep},
		} {
			if _, err := cron.ParseStandard(s.spec); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.env, err))
			}
		}
	}

	check(c.Oracle.Timeout > 0, "ORACLE_TIMEOUT must be > 0")
	check(c.Oracle.RPS > 0, "ORACLE_RPS must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// Location resolves Timezone. Load has already validated it, so failures fall
// back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
