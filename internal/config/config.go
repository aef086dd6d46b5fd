package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Addr           string   `validate:"required"`
	AllowedOrigins []string `validate:"required,min=1,dive,required"`

	MaxMessageSize int64 `validate:"gte=64"`
	MaxTextLength  int   `validate:"gte=1"`
	QueueSize      int   `validate:"gte=1"`

	RateLimitBurst    int           `validate:"gte=1"`
	RateLimitInterval time.Duration `validate:"gt=0"`

	WriteTimeout    time.Duration `validate:"gt=0"`
	PingInterval    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`

	AnnouncePresence      bool
	AnnounceRatePerMinute int `validate:"gte=1"`

	TracingEnabled     bool
	TracingServiceName string `validate:"required"`
	TracingZipkinURL   string `validate:"omitempty,url"`
}

// Default returns the configuration used when no environment overrides are set.
func Default() *Config {
	return &Config{
		Addr:                  ":3000",
		AllowedOrigins:        []string{"*"},
		MaxMessageSize:        4096,
		MaxTextLength:         1000,
		QueueSize:             100,
		RateLimitBurst:        5,
		RateLimitInterval:     time.Second,
		WriteTimeout:          10 * time.Second,
		PingInterval:          54 * time.Second,
		ShutdownTimeout:       10 * time.Second,
		LogFormat:             "text",
		LogLevel:              "info",
		AnnouncePresence:      false,
		AnnounceRatePerMinute: 10,
		TracingEnabled:        false,
		TracingServiceName:    "chathub",
		TracingZipkinURL:      "http://localhost:9411/api/v2/spans",
	}
}

// Load reads envFile (if present) into the process environment and builds a
// validated Config from it. Variables already set in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Info("No env file found, relying on environment variables", "file", envFile)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	r.str("SERVER_ADDR", &cfg.Addr)
	r.list("ALLOWED_ORIGINS", &cfg.AllowedOrigins)
	r.int64("MAX_MESSAGE_SIZE", &cfg.MaxMessageSize)
	r.int("MAX_TEXT_LENGTH", &cfg.MaxTextLength)
	r.int("CLIENT_QUEUE_SIZE", &cfg.QueueSize)
	r.int("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	r.duration("RATE_LIMIT_INTERVAL", &cfg.RateLimitInterval)
	r.duration("WRITE_TIMEOUT", &cfg.WriteTimeout)
	r.duration("PING_INTERVAL", &cfg.PingInterval)
	r.duration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	r.str("LOG_FORMAT", &cfg.LogFormat)
	r.str("LOG_LEVEL", &cfg.LogLevel)
	r.bool("ANNOUNCE_PRESENCE", &cfg.AnnouncePresence)
	r.int("ANNOUNCE_RATE_PER_MINUTE", &cfg.AnnounceRatePerMinute)
	r.bool("TRACING_ENABLED", &cfg.TracingEnabled)
	r.str("TRACING_SERVICE_NAME", &cfg.TracingServiceName)
	r.str("TRACING_ZIPKIN_URL", &cfg.TracingZipkinURL)

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// reader collects parse errors so every bad variable is reported at once.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *reader) list(key string, dst *[]string) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (r *reader) int(key string, dst *int) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return
	}
	*dst = n
}

func (r *reader) int64(key string, dst *int64) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return
	}
	*dst = n
}

func (r *reader) bool(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return
	}
	*dst = b
}

// duration accepts Go duration strings ("1500ms") or a bare number of seconds.
func (r *reader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return
	}
	*dst = d
}
