package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := loadFrom(lookupMap(nil))
	if err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("server defaults: %+v", cfg)
	}
	if cfg.APIBasePath != "/api/v1" || cfg.DBPath != "pactkeeper.db" || cfg.Timezone != "UTC" {
		t.Fatalf("app defaults: %+v", cfg)
	}
	if cfg.MaxActiveContracts != 10 || cfg.MaxExceptions != 5 || cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("quota defaults: %+v", cfg)
	}
	want := SchedulerConfig{
		Enabled:         true,
		MorningBriefing: "0 7 * * *",
		EveningBriefing: "0 20 * * *",
		WeeklyRollover:  "5 0 * * 1",
		AutoKeep:        "10 0 * * *",
		Concurrency:     8,
	}
	if cfg.Scheduler != want {
		t.Fatalf("scheduler defaults = %+v, want %+v", cfg.Scheduler, want)
	}
	if cfg.Oracle.APIKey != "" || cfg.Oracle.Model != "gemini-2.5-flash" || cfg.Oracle.Timeout != 30*time.Second {
		t.Fatalf("oracle defaults: %+v", cfg.Oracle)
	}
	if cfg.OTEL.Enabled || !cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "pactkeeper" || cfg.OTEL.SampleRatio != 1 {
		t.Fatalf("otel defaults: %+v", cfg.OTEL)
	}
	if cfg.CORS.AllowedOrigins != nil {
		t.Fatalf("no origins expected, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadFrom_OverridesAndNormalization(t *testing.T) {
	cfg, err := loadFrom(lookupMap(map[string]string{
		"PORT":                        "8088",
		"READ_TIMEOUT":                "2s",
		"GIN_MODE":                    "weird",
		"LOG_LEVEL":                   "WARNING",
		"LOG_PRETTY":                  "yes",
		"SWAGGER_ENABLED":             "on",
		"API_BASE_PATH":               "api/v2/",
		"TIMEZONE":                    "Europe/Athens",
		"MAX_ACTIVE_CONTRACTS":        "3",
		"MAX_EXCEPTIONS":              "bad",
		"RATE_RPS":                    "x",
		"CORS_ALLOWED_ORIGINS":        " https://a.com , , http://b ",
		"ENABLE_HSTS":                 "TRUE",
		"HSTS_MAX_AGE":                "24h",
		"SCHEDULER_ENABLED":           "off",
		"CRON_WEEKLY_ROLLOVER":        "0 1 * * 0",
		"SETTLEMENT_CONCURRENCY":      " 2 ",
		"GEMINI_API_KEY":              "k",
		"TELEGRAM_BOT_TOKEN":          "tg",
		"OTEL_ENABLED":                "1",
		"OTEL_EXPORTER_OTLP_INSECURE": "0",
		"OTEL_TRACES_SAMPLER_ARG":     "0.75",
		"IDEMPOTENCY_TTL":             "48h",
	}))
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}

	checks := map[string][2]any{
		"port":        {cfg.Port, "8088"},
		"read":        {cfg.ReadTimeout, 2 * time.Second},
		"gin mode":    {cfg.GinMode, "release"},
		"log level":   {cfg.LogLevel, "warn"},
		"pretty":      {cfg.LogPretty, true},
		"swagger":     {cfg.SwaggerEnabled, true},
		"base path":   {cfg.APIBasePath, "/api/v2"},
		"timezone":    {cfg.Location().String(), "Europe/Athens"},
		"max active":  {cfg.MaxActiveContracts, 3},
		"exceptions":  {cfg.MaxExceptions, 5},
		"rate rps":    {cfg.RateRPS, 5.0},
		"hsts":        {cfg.Security, SecurityConfig{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}},
		"scheduler":   {cfg.Scheduler.Enabled, false},
		"rollover":    {cfg.Scheduler.WeeklyRollover, "0 1 * * 0"},
		"concurrency": {cfg.Scheduler.Concurrency, 2},
		"gemini":      {cfg.Oracle.APIKey, "k"},
		"telegram":    {cfg.TelegramToken, "tg"},
		"otel":        {cfg.OTEL.Enabled && !cfg.OTEL.Insecure, true},
		"sample":      {cfg.OTEL.SampleRatio, 0.75},
		"idem ttl":    {cfg.IdempotencyTTL, 48 * time.Hour},
	}
	for name, c := range checks {
		if !reflect.DeepEqual(c[0], c[1]) {
			t.Errorf("%s = %v, want %v", name, c[0], c[1])
		}
	}
	if want := []string{"https://a.com", "http://b"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("origins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
}

func TestLoadFrom_ValidationErrors(t *testing.T) {
	cases := map[string]struct {
		env  map[string]string
		want string
	}{
		"log level":         {map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		"timeout":           {map[string]string{"WRITE_TIMEOUT": "-1s"}, "timeouts"},
		"header bytes":      {map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		"timezone":          {map[string]string{"TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		"max active":        {map[string]string{"MAX_ACTIVE_CONTRACTS": "0"}, "MAX_ACTIVE_CONTRACTS"},
		"max exceptions":    {map[string]string{"MAX_EXCEPTIONS": "-1"}, "MAX_EXCEPTIONS"},
		"rate rps":          {map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		"rate burst":        {map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		"hsts":              {map[string]string{"HSTS_MAX_AGE": "-1h"}, "HSTS_MAX_AGE"},
		"idempotency":       {map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		"concurrency":       {map[string]string{"SETTLEMENT_CONCURRENCY": "0"}, "SETTLEMENT_CONCURRENCY"},
		"cron":              {map[string]string{"CRON_AUTO_KEEP": "every day"}, "CRON_AUTO_KEEP"},
		"oracle timeout":    {map[string]string{"ORACLE_TIMEOUT": "-5s"}, "ORACLE_TIMEOUT"},
		"oracle rps":        {map[string]string{"ORACLE_RPS": "0"}, "ORACLE_RPS"},
		"sample ratio":      {map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
		"blank port":        {map[string]string{"PORT": "   "}, ""},
		"cron when enabled": {map[string]string{"CRON_MORNING_BRIEFING": "61 * * * *"}, "CRON_MORNING_BRIEFING"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loadFrom(lookupMap(tc.env))
			if tc.want == "" {
				// Blank values read as unset, so the default applies.
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg, err := loadFrom(lookupMap(nil))
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	cfg.RateBurst = 0
	cfg.Oracle.RPS = 0
	cfg.DBPath = ""

	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, want := range []string{"RATE_BURST", "ORACLE_RPS", "DB_PATH"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %s in %q", want, err)
		}
	}
}

func TestValidate_SkipsCronWhenSchedulerDisabled(t *testing.T) {
	_, err := loadFrom(lookupMap(map[string]string{
		"SCHEDULER_ENABLED": "false",
		"CRON_AUTO_KEEP":    "not a spec",
	}))
	if err != nil {
		t.Fatalf("disabled scheduler must not validate specs: %v", err)
	}
}

func TestEnv_TypedReads(t *testing.T) {
	e := env(lookupMap(map[string]string{
		"S": "v", "BLANK": "  ", "I": "42", "IBAD": "4x", "F": "0.5",
		"B1": "Y", "B0": "off", "BBAD": "maybe", "D": "90s", "DBAD": "soon",
		"L": "a,,b , c",
	}))

	if e.str("S", "d") != "v" || e.str("BLANK", "d") != "d" || e.str("MISSING", "d") != "d" {
		t.Fatalf("str")
	}
	if e.integer("I", 0) != 42 || e.integer("IBAD", 7) != 7 {
		t.Fatalf("integer")
	}
	if e.number("F", 0) != 0.5 || e.number("I", 0) != 42 {
		t.Fatalf("number")
	}
	if !e.flag("B1", false) || e.flag("B0", true) || !e.flag("BBAD", true) {
		t.Fatalf("flag")
	}
	if e.duration("D", 0) != 90*time.Second || e.duration("DBAD", time.Minute) != time.Minute {
		t.Fatalf("duration")
	}
	if got := e.list("L"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("list = %v", got)
	}
	if e.list("MISSING") != nil {
		t.Fatalf("missing list must be nil")
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":          "/",
		"  ":        "/",
		"/":         "/",
		"//":        "/",
		"api":       "/api",
		"/api/":     "/api",
		" /api/v1 ": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	if got := (Config{Timezone: "Nowhere/Land"}).Location(); got != time.UTC {
		t.Fatalf("got %v", got)
	}
	if got := (Config{Timezone: "Local"}).Location(); got != time.Local {
		t.Fatalf("Local must resolve to time.Local, got %v", got)
	}
}

func TestLoadAndMustLoad_ReadProcessEnv(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("LOG_LEVEL", "debug")
	cfg := MustLoad()
	if cfg.Port != "9191" || cfg.LogLevel != "debug" {
		t.Fatalf("process env not read: %+v", cfg)
	}

	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if recover() == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}
