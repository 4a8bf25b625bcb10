package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/mailctl/internal/domain"
	"github.com/bnema/mailctl/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultGenerationTimeout = 90 * time.Second

	PromptSentNotice = "✅ Prompt sent! Check backend for final result."
	ThinkingNotice   = "AI is thinking... this might take up to 90 seconds"
)

var ErrRunSuperseded = errors.New("generation superseded by a newer run")

// Assistant runs AI generations for prompt dialogs under a hard timeout.
type Assistant struct {
	generator ports.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

func NewAssistant(generator ports.Generator, timeout time.Duration, logger *zap.Logger) *Assistant {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{generator: generator, timeout: timeout, logger: logger.Named("assistant")}
}

// Run sends the dialog's current prompt. Starting a run cancels the dialog's
// previous one, which then returns ErrRunSuperseded and leaves the dialog
// state to the newer run. Hitting the timeout yields
// domain.ErrGenerationTimeout, any other failure wraps ErrGenerationFailed.
func (a *Assistant) Run(ctx context.Context, dialog *PromptDialog) (domain.AIResult, error) {
	prompt := dialog.Prompt()
	if strings.TrimSpace(prompt) == "" {
		return domain.AIResult{}, ErrEmptyPrompt
	}

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	seq := dialog.begin(cancel)

	started := time.Now()
	text, err := a.generator.Generate(runCtx, prompt)
	if err != nil {
		err = a.classify(runCtx, err)
	}

	var result *domain.AIResult
	if err == nil {
		if strings.TrimSpace(text) == "" {
			text = PromptSentNotice
		}
		result = &domain.AIResult{Text: text}
	}

	if !dialog.finish(seq, result, err) {
		a.logger.Debug("dropped superseded result", zap.String("dialog_id", dialog.ID().String()))
		return domain.AIResult{}, ErrRunSuperseded
	}

	if err != nil {
		a.logger.Warn("generation failed", zap.Duration("duration", time.Since(started)), zap.Error(err))
		return domain.AIResult{}, err
	}

	a.logger.Info("generation completed", zap.Duration("duration", time.Since(started)))
	return *result, nil
}

func (a *Assistant) classify(runCtx context.Context, err error) error {
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("generate after %s: %w", a.timeout, domain.ErrGenerationTimeout)
	case errors.Is(runCtx.Err(), context.Canceled):
		return fmt.Errorf("generate: %w", runCtx.Err())
	default:
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
}
