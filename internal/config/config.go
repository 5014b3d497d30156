package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal images

	"github.com/BurntSushi/toml"
)

const (
	BackendSQLite = "sqlite"
	BackendGoogle = "google"
)

// Config is the complete process configuration.
type Config struct {
	Model    ModelConfig    `toml:"model"`
	Agent    AgentConfig    `toml:"agent"`
	Calendar CalendarConfig `toml:"calendar"`
	Google   GoogleConfig   `toml:"google"`
	Server   ServerConfig   `toml:"server"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Log      LogConfig      `toml:"log"`
}

// ModelConfig configures the OpenAI-compatible chat endpoint.
type ModelConfig struct {
	BaseURL      string        `toml:"base_url"`
	APIKey       string        `toml:"api_key"`
	Name         string        `toml:"name"`
	SystemPrompt string        `toml:"system_prompt"`
	Timeout      time.Duration `toml:"timeout"`
	MaxRetries   int           `toml:"max_retries"`
}

// AgentConfig configures the conversation loop.
type AgentConfig struct {
	MaxRounds int    `toml:"max_rounds"`
	TimeZone  string `toml:"timezone"`
}

// CalendarConfig selects the calendar backend.
type CalendarConfig struct {
	// Backend is "sqlite" or "google".
	Backend    string `toml:"backend"`
	DBPath     string `toml:"db_path"`
	CalendarID string `toml:"calendar_id"`
}

// GoogleConfig holds the OAuth client used by the google backend.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
	Account      string `toml:"account"`
	TokenDir     string `toml:"token_dir"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// RateLimit is the sustained /invoke rate in requests per second; 0 disables limiting.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
	// RequestTimeout bounds one agent run; 0 means no limit.
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// MetricsConfig configures the dedicated metrics listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			BaseURL:    "https://api.together.xyz/v1",
			Name:       "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free",
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		Agent: AgentConfig{
			MaxRounds: 5,
			TimeZone:  "Asia/Kolkata",
		},
		Calendar: CalendarConfig{
			Backend:    BackendSQLite,
			DBPath:     DefaultDBPath(),
			CalendarID: "primary",
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost",
			Account:     "default",
		},
		Server: ServerConfig{
			Addr:            ":8000",
			RateBurst:       10,
			ShutdownTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDBPath returns the SQLite events database location under the
// user's data directory, falling back to the working directory.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "calendaragent.db"
	}
	return filepath.Join(dir, "calendaragent", "events.db")
}

// LoadFile decodes a TOML file over c. Keys absent from the file keep their
// current values.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Load returns the defaults overlaid with path (if non-empty) and the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Malformed numeric or
// boolean values are reported together.
func (c *Config) ApplyEnv() error {
	var errs []error

	c.Model.APIKey = firstEnv(c.Model.APIKey, "TOGETHER_API_KEY", "OPENAI_API_KEY", "MODEL_API_KEY")
	c.Model.BaseURL = getEnvOrDefault("MODEL_BASE_URL", c.Model.BaseURL)
	c.Model.Name = getEnvOrDefault("MODEL_NAME", c.Model.Name)
	c.Model.SystemPrompt = getEnvOrDefault("MODEL_SYSTEM_PROMPT", c.Model.SystemPrompt)
	errs = append(errs, envDuration("MODEL_TIMEOUT", &c.Model.Timeout))

	errs = append(errs, envInt("AGENT_MAX_ROUNDS", &c.Agent.MaxRounds))
	c.Agent.TimeZone = getEnvOrDefault("AGENT_TIMEZONE", c.Agent.TimeZone)

	c.Calendar.Backend = getEnvOrDefault("CALENDAR_BACKEND", c.Calendar.Backend)
	c.Calendar.DBPath = getEnvOrDefault("CALENDAR_DB_PATH", c.Calendar.DBPath)
	c.Calendar.CalendarID = getEnvOrDefault("CALENDAR_ID", c.Calendar.CalendarID)

	c.Google.ClientID = getEnvOrDefault("GOOGLE_CLIENT_ID", c.Google.ClientID)
	c.Google.ClientSecret = getEnvOrDefault("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)
	c.Google.Account = getEnvOrDefault("GOOGLE_ACCOUNT", c.Google.Account)
	c.Google.TokenDir = getEnvOrDefault("GOOGLE_TOKEN_DIR", c.Google.TokenDir)

	c.Server.Addr = getEnvOrDefault("HTTP_ADDR", c.Server.Addr)
	errs = append(errs,
		envFloat("RATE_LIMIT", &c.Server.RateLimit),
		envInt("RATE_BURST", &c.Server.RateBurst),
		envDuration("REQUEST_TIMEOUT", &c.Server.RequestTimeout),
	)

	errs = append(errs, envBool("METRICS_ENABLED", &c.Metrics.Enabled))
	c.Metrics.Addr = getEnvOrDefault("METRICS_ADDR", c.Metrics.Addr)

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)

	return errors.Join(errs...)
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	if c.Model.BaseURL == "" {
		errs = append(errs, fmt.Errorf("model.base_url is required"))
	}
	if c.Model.Name == "" {
		errs = append(errs, fmt.Errorf("model.name is required"))
	}
	if c.Model.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("model.max_retries must not be negative"))
	}
	if c.Agent.MaxRounds <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_rounds must be positive, got %d", c.Agent.MaxRounds))
	}
	if _, err := time.LoadLocation(c.Agent.TimeZone); err != nil || c.Agent.TimeZone == "" {
		errs = append(errs, fmt.Errorf("agent.timezone %q is not a valid IANA zone", c.Agent.TimeZone))
	}

	switch c.Calendar.Backend {
	case BackendSQLite:
		if c.Calendar.DBPath == "" {
			errs = append(errs, fmt.Errorf("calendar.db_path is required for the sqlite backend"))
		}
	case BackendGoogle:
		if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
			errs = append(errs, fmt.Errorf("google.client_id and google.client_secret are required for the google backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("calendar.backend must be %q or %q, got %q", BackendSQLite, BackendGoogle, c.Calendar.Backend))
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_burst must be positive when rate limiting is enabled"))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must not be negative"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, fmt.Errorf("metrics.addr is required when metrics are enabled"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Location loads the reference time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Agent.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", c.Agent.TimeZone, err)
	}
	return loc, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(current string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return current
}

func envInt(key string, target *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	*target = n
	return nil
}

func envFloat(key string, target *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, value)
	}
	*target = f
	return nil
}

func envBool(key string, target *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	*target = b
	return nil
}

func envDuration(key string, target *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, value)
	}
	*target = d
	return nil
}
