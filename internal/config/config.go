package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = "mailctl"
	envPrefix  = "MAILCTL"
)

const (
	KeyAPIBaseURL         = "api.base_url"
	KeyAPIRequestTimeout  = "api.request_timeout"
	KeyHealthURL          = "health.url"
	KeyHealthNotebookURL  = "health.notebook_url"
	KeyHealthInterval     = "health.interval"
	KeyHealthProbeTimeout = "health.probe_timeout"
	KeyAITimeout          = "ai.timeout"
	KeyPromptMaxChars     = "prompt.max_chars"
	KeyPromptMinChars     = "prompt.min_chars"
	KeyTemplatesMinify    = "templates.minify_html"
	KeyLogLevel           = "log.level"
	KeyLogFile            = "log.file"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	API       APIConfig
	Health    HealthConfig
	AI        AIConfig
	Prompt    PromptConfig
	Templates TemplatesConfig
	Log       LogConfig
	// File is the config file that was read, empty when only defaults and
	// environment applied.
	File string
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type HealthConfig struct {
	URL          string
	NotebookURL  string
	Interval     time.Duration
	ProbeTimeout time.Duration
}

type AIConfig struct {
	Timeout time.Duration
}

type PromptConfig struct {
	MaxChars int
	MinChars int
}

type TemplatesConfig struct {
	MinifyHTML bool
}

type LogConfig struct {
	Level string
	File  string
}

func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "http://127.0.0.1:5000/",
			RequestTimeout: 30 * time.Second,
		},
		Health: HealthConfig{
			URL:          "https://puspeshd.pythonanywhere.com/status",
			NotebookURL:  "https://colab.research.google.com/drive/1vdUe_7oQLbZ3g9pmiRn4ZdmjmsUQm2Xo",
			Interval:     6 * time.Second,
			ProbeTimeout: 5 * time.Second,
		},
		AI:     AIConfig{Timeout: 90 * time.Second},
		Prompt: PromptConfig{MaxChars: 4000, MinChars: 5},
		Log:    LogConfig{Level: "warn"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/mailctl/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, configDir, configName+"."+configType), nil
}

// Load reads defaults, then the config file, then MAILCTL_* environment
// variables. An explicit path must exist; the default path may not.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType(configType)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		v.SetConfigName(configName)
		v.AddConfigPath(filepath.Dir(defaultPath))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := Config{
		API: APIConfig{
			BaseURL:        v.GetString(KeyAPIBaseURL),
			RequestTimeout: v.GetDuration(KeyAPIRequestTimeout),
		},
		Health: HealthConfig{
			URL:          v.GetString(KeyHealthURL),
			NotebookURL:  v.GetString(KeyHealthNotebookURL),
			Interval:     v.GetDuration(KeyHealthInterval),
			ProbeTimeout: v.GetDuration(KeyHealthProbeTimeout),
		},
		AI: AIConfig{Timeout: v.GetDuration(KeyAITimeout)},
		Prompt: PromptConfig{
			MaxChars: v.GetInt(KeyPromptMaxChars),
			MinChars: v.GetInt(KeyPromptMinChars),
		},
		Templates: TemplatesConfig{MinifyHTML: v.GetBool(KeyTemplatesMinify)},
		Log: LogConfig{
			Level: v.GetString(KeyLogLevel),
			File:  v.GetString(KeyLogFile),
		},
		File: v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) url", ErrInvalidConfig, KeyAPIBaseURL)
	}
	if c.Health.URL == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, KeyHealthURL)
	}

	durations := []struct {
		key   string
		value time.Duration
	}{
		{KeyAPIRequestTimeout, c.API.RequestTimeout},
		{KeyHealthInterval, c.Health.Interval},
		{KeyHealthProbeTimeout, c.Health.ProbeTimeout},
		{KeyAITimeout, c.AI.Timeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, d.key)
		}
	}

	if c.Prompt.MinChars < 0 || c.Prompt.MaxChars <= 0 || c.Prompt.MinChars > c.Prompt.MaxChars {
		return fmt.Errorf("%w: %s must be positive and not below %s", ErrInvalidConfig, KeyPromptMaxChars, KeyPromptMinChars)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyAPIBaseURL, d.API.BaseURL)
	v.SetDefault(KeyAPIRequestTimeout, d.API.RequestTimeout)
	v.SetDefault(KeyHealthURL, d.Health.URL)
	v.SetDefault(KeyHealthNotebookURL, d.Health.NotebookURL)
	v.SetDefault(KeyHealthInterval, d.Health.Interval)
	v.SetDefault(KeyHealthProbeTimeout, d.Health.ProbeTimeout)
	v.SetDefault(KeyAITimeout, d.AI.Timeout)
	v.SetDefault(KeyPromptMaxChars, d.Prompt.MaxChars)
	v.SetDefault(KeyPromptMinChars, d.Prompt.MinChars)
	v.SetDefault(KeyTemplatesMinify, d.Templates.MinifyHTML)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFile, d.Log.File)
}
