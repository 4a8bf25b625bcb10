package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLevel = "warn"

type Options struct {
	Level string
	// File receives the log output. Empty means stderr.
	File string
	// Interactive silences stderr output so the console screen stays intact.
	// Logging to File still works.
	Interactive bool
}

// New builds a console-encoded logger for the given options.
func New(opts Options) (*zap.Logger, error) {
	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = DefaultLevel
	}
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	output := "stderr"
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		output = opts.File
	} else if opts.Interactive {
		return zap.NewNop(), nil
	}

	config := zap.NewDevelopmentConfig()
	config.Development = false
	config.DisableStacktrace = true
	config.Encoding = "console"
	config.OutputPaths = []string{output}
	config.ErrorOutputPaths = []string{output}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("mailctl"), nil
}
