package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

// clearEnv blanks every variable ApplyEnv reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TOGETHER_API_KEY", "OPENAI_API_KEY", "MODEL_API_KEY", "MODEL_BASE_URL", "MODEL_NAME",
		"MODEL_SYSTEM_PROMPT", "MODEL_TIMEOUT", "AGENT_MAX_ROUNDS", "AGENT_TIMEZONE",
		"CALENDAR_BACKEND", "CALENDAR_DB_PATH", "CALENDAR_ID", "GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET", "GOOGLE_ACCOUNT", "GOOGLE_TOKEN_DIR", "HTTP_ADDR",
		"RATE_LIMIT", "RATE_BURST", "REQUEST_TIMEOUT", "METRICS_ENABLED", "METRICS_ADDR",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://api.together.xyz/v1", cfg.Model.BaseURL)
	assert.Equal(t, "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free", cfg.Model.Name)
	assert.Equal(t, 5, cfg.Agent.MaxRounds)
	assert.Equal(t, "Asia/Kolkata", cfg.Agent.TimeZone)
	assert.Equal(t, BackendSQLite, cfg.Calendar.Backend)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[model]
name = "gpt-4o-mini"
base_url = "https://api.openai.com/v1"
timeout = "15s"

[agent]
max_rounds = 3
timezone = "Europe/Berlin"

[server]
rate_limit = 2.5
rate_burst = 4
request_timeout = "2m"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, 15*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 3, cfg.Agent.MaxRounds)
	assert.Equal(t, "Europe/Berlin", cfg.Agent.TimeZone)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, 4, cfg.Server.RateBurst)
	assert.Equal(t, 2*time.Minute, cfg.Server.RequestTimeout)
	// untouched keys keep defaults
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[agent]\nmax_turns = 3\n"), 0o600))
	_, err := Load(unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.max_turns")

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[agent\n"), 0o600))
	_, err = Load(broken)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("TOGETHER_API_KEY", "tg-key")
	t.Setenv("AGENT_MAX_ROUNDS", "7")
	t.Setenv("CALENDAR_BACKEND", "google")
	t.Setenv("REQUEST_TIMEOUT", "45s")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "tg-key", cfg.Model.APIKey, "TOGETHER_API_KEY takes precedence")
	assert.Equal(t, 7, cfg.Agent.MaxRounds)
	assert.Equal(t, BackendGoogle, cfg.Calendar.Backend)
	assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestApplyEnv_Malformed(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENT_MAX_ROUNDS", "many")
	t.Setenv("METRICS_ENABLED", "sometimes")

	cfg := Default()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENT_MAX_ROUNDS")
	assert.Contains(t, err.Error(), "METRICS_ENABLED")
	assert.Equal(t, 5, cfg.Agent.MaxRounds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero rounds", mutate: func(c *Config) { c.Agent.MaxRounds = 0 }, wantErr: "agent.max_rounds"},
		{name: "bad zone", mutate: func(c *Config) { c.Agent.TimeZone = "Mars/Olympus" }, wantErr: "agent.timezone"},
		{name: "empty zone", mutate: func(c *Config) { c.Agent.TimeZone = "" }, wantErr: "agent.timezone"},
		{name: "unknown backend", mutate: func(c *Config) { c.Calendar.Backend = "outlook" }, wantErr: "calendar.backend"},
		{name: "google without client", mutate: func(c *Config) { c.Calendar.Backend = BackendGoogle }, wantErr: "google.client_id"},
		{name: "negative rate", mutate: func(c *Config) { c.Server.RateLimit = -1 }, wantErr: "server.rate_limit"},
		{name: "rate without burst", mutate: func(c *Config) { c.Server.RateLimit = 1; c.Server.RateBurst = 0 }, wantErr: "server.rate_burst"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "metrics without addr", mutate: func(c *Config) { c.Metrics.Addr = "" }, wantErr: "metrics.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}
