package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/calendaragent/internal/agent"
	"github.com/teemow/calendaragent/internal/calendar"
	"github.com/teemow/calendaragent/internal/config"
	"github.com/teemow/calendaragent/internal/google"
	"github.com/teemow/calendaragent/internal/instrumentation"
	"github.com/teemow/calendaragent/internal/llm"
	"github.com/teemow/calendaragent/internal/logging"
	"github.com/teemow/calendaragent/internal/tools/calendar_tools"
	"github.com/teemow/calendaragent/internal/tools/common"
)

// configEnvVar names the config file when --config is not given.
const configEnvVar = "CALENDARAGENT_CONFIG"

// loadConfig resolves the configuration from defaults, the config file, the
// environment and finally override.
func loadConfig(override func(*config.Config)) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(configEnvVar)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Log.Level = "debug"
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type runtimeOptions struct {
	// telemetry starts the OpenTelemetry provider; otherwise metrics are discarded.
	telemetry bool
	// logOutput defaults to stderr.
	logOutput io.Writer
	override  func(*config.Config)
}

// runtime holds the components shared by the serve, ask and mcp commands.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	loc      *time.Location
	provider *instrumentation.Provider
	backend  calendar.Backend
	registry *calendar_tools.Registry
	closers  []io.Closer
}

func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg, err := loadConfig(opts.override)
	if err != nil {
		return nil, err
	}

	out := opts.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, out)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider := instrumentation.NoopProvider()
	if opts.telemetry {
		provider, err = instrumentation.NewProvider(ctx, instrConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
		}
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		loc:      loc,
		provider: provider,
	}

	backend, err := rt.openBackend(ctx)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.backend = calendar.NewInstrumentedBackend(backend, provider.Metrics())

	rt.registry = calendar_tools.NewRegistry(rt.backend, calendar_tools.Options{
		Location: loc,
		Instrumentation: common.Instrumentation{
			Metrics: provider.Metrics(),
			Audit:   instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		},
	})

	logger.Debug("runtime initialized",
		logging.Backend(backend.Name()),
		slog.String("timezone", loc.String()),
		slog.Bool("telemetry", provider.Enabled()))
	return rt, nil
}

func (rt *runtime) openBackend(ctx context.Context) (calendar.Backend, error) {
	switch rt.cfg.Calendar.Backend {
	case config.BackendGoogle:
		oauthConf, err := googleOAuthConfig(rt.cfg)
		if err != nil {
			return nil, err
		}
		account := rt.cfg.Google.Account
		tokens := google.NewFileTokenProvider(rt.cfg.Google.TokenDir)
		client, err := calendar.NewClientForAccount(ctx, account, rt.cfg.Calendar.CalendarID, oauthConf, tokens)
		if err != nil {
			if errors.Is(err, google.ErrNoToken) {
				return nil, errors.New(google.GetAuthenticationErrorMessage(account))
			}
			return nil, fmt.Errorf("failed to create Google Calendar client: %w", err)
		}
		return client, nil
	default:
		store, err := calendar.OpenStore(ctx, rt.cfg.Calendar.DBPath, logging.NewSlogAdapter(rt.logger))
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store)
		return store, nil
	}
}

// newAgent builds the model client and the agent on top of the registry.
func (rt *runtime) newAgent() (*agent.Agent, *llm.OpenAIClient, error) {
	metrics := rt.provider.Metrics()
	client, err := llm.NewOpenAIClient(llm.Config{
		BaseURL:      rt.cfg.Model.BaseURL,
		APIKey:       rt.cfg.Model.APIKey,
		Model:        rt.cfg.Model.Name,
		SystemPrompt: rt.cfg.Model.SystemPrompt,
		Timeout:      rt.cfg.Model.Timeout,
		MaxRetries:   rt.cfg.Model.MaxRetries,
		Metrics:      metrics,
		Logger:       rt.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}

	a, err := agent.New(client, rt.registry, agent.Config{
		MaxRounds: rt.cfg.Agent.MaxRounds,
		Location:  rt.loc,
		Logger:    rt.logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, nil, err
	}
	rt.logger.Info("agent ready",
		slog.String("model", client.Model()),
		slog.String("api_key", logging.SanitizeToken(rt.cfg.Model.APIKey)),
		slog.Int("max_rounds", a.MaxRounds()))
	return a, client, nil
}

// Close releases the backend and flushes telemetry.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if err := rt.provider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func googleOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	return google.OAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	}.Config()
}
