package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bnema/mailctl/internal/adapters/controlapi"
	"github.com/bnema/mailctl/internal/adapters/healthprobe"
	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/config"
	"github.com/bnema/mailctl/internal/logging"
	"github.com/bnema/mailctl/internal/ports"
	"github.com/bnema/mailctl/internal/tui"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	cfg    config.Config
	logger *zap.Logger

	client       *controlapi.Client
	registry     *application.Registry
	detail       *application.DetailController
	catalog      *application.TemplateCatalog
	orchestrator *application.Orchestrator
	assistant    *application.Assistant
	monitor      *application.Monitor
	healthFeed   *tui.HealthFeed

	extract  application.ExtractOptions
	location *time.Location
	now      func() time.Time
}

type wireOptions struct {
	configPath  string
	logLevel    string
	interactive bool
}

func wireApp(opts wireOptions) (*app, error) {
	configPath := opts.configPath
	if configPath == "" {
		configPath = envOrDefault("MAILCTL_CONFIG", "")
	}

	cfg, err := config.Load(viper.New(), configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := logging.New(logging.Options{Level: level, File: cfg.Log.File, Interactive: opts.interactive})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	client := controlapi.New(cfg.API.BaseURL, cfg.API.RequestTimeout, logger)
	registry := application.NewRegistry(client, ports.SystemClock{}, logger)
	detail := application.NewDetailController(client, logger)
	catalog := application.NewTemplateCatalog(client, logger)
	feed := tui.NewHealthFeed()

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: registry,
		detail:   detail,
		catalog:  catalog,
		orchestrator: application.NewOrchestrator(client, client, registry, detail, catalog,
			application.OrchestratorOptions{MinifyHTML: cfg.Templates.MinifyHTML}, logger),
		assistant: application.NewAssistant(client, cfg.AI.Timeout, logger),
		monitor: application.NewMonitor(
			healthprobe.StatusProbe{URL: cfg.Health.URL, HTTPClient: http.DefaultClient},
			application.MonitorOptions{
				Interval:     cfg.Health.Interval,
				ProbeTimeout: cfg.Health.ProbeTimeout,
				OnChange:     feed.Publish,
				Logger:       logger,
			},
		),
		healthFeed: feed,
		extract: application.ExtractOptions{
			MaxChars: cfg.Prompt.MaxChars,
			MinChars: cfg.Prompt.MinChars,
		},
		location: time.Local,
		now:      time.Now,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
