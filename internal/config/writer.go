package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".config-*.toml.tmp"
)

var ErrConfigExists = errors.New("config file already exists")

type fileSchema struct {
	API       apiSchema       `toml:"api"`
	Health    healthSchema    `toml:"health"`
	AI        aiSchema        `toml:"ai"`
	Prompt    promptSchema    `toml:"prompt"`
	Templates templatesSchema `toml:"templates"`
	Log       logSchema       `toml:"log"`
}

type apiSchema struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout string `toml:"request_timeout"`
}

type healthSchema struct {
	URL          string `toml:"url"`
	NotebookURL  string `toml:"notebook_url"`
	Interval     string `toml:"interval"`
	ProbeTimeout string `toml:"probe_timeout"`
}

type aiSchema struct {
	Timeout string `toml:"timeout"`
}

type promptSchema struct {
	MaxChars int `toml:"max_chars"`
	MinChars int `toml:"min_chars"`
}

type templatesSchema struct {
	MinifyHTML bool `toml:"minify_html"`
}

type logSchema struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func toSchema(c Config) fileSchema {
	return fileSchema{
		API: apiSchema{
			BaseURL:        c.API.BaseURL,
			RequestTimeout: c.API.RequestTimeout.String(),
		},
		Health: healthSchema{
			URL:          c.Health.URL,
			NotebookURL:  c.Health.NotebookURL,
			Interval:     c.Health.Interval.String(),
			ProbeTimeout: c.Health.ProbeTimeout.String(),
		},
		AI:        aiSchema{Timeout: c.AI.Timeout.String()},
		Prompt:    promptSchema{MaxChars: c.Prompt.MaxChars, MinChars: c.Prompt.MinChars},
		Templates: templatesSchema{MinifyHTML: c.Templates.MinifyHTML},
		Log:       logSchema{Level: c.Log.Level, File: c.Log.File},
	}
}

// Write stores cfg as TOML at path. An existing file is only replaced when
// force is set.
func Write(path string, cfg Config, force bool) error {
	if path == "" {
		return errors.New("config path is required")
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(toSchema(cfg))
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	cleanup = false

	return nil
}
