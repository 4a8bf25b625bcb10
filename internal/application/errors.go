package application

import (
	"errors"
	"strings"

	"github.com/bnema/mailctl/internal/domain"
)

var (
	ErrBusy             = errors.New("another operation is already in progress")
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrGenerationFailed = errors.New("failed to get AI response")
)

// DescribeError renders err as the one-line banner shown to the operator.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var (
		httpErr   *domain.HTTPError
		netErr    *domain.NetworkError
		decodeErr *domain.DecodeError
	)

	switch {
	case errors.Is(err, ErrBusy):
		return "Another operation is already in progress."
	case errors.Is(err, domain.ErrGenerationTimeout):
		return "The AI took too long to respond. Try again or shorten the prompt."
	case errors.Is(err, ErrEmptyPrompt):
		return "Prompt is empty."
	case errors.Is(err, ErrGenerationFailed):
		return "Failed to get AI response"
	case errors.Is(err, domain.ErrTemplateNotFound):
		return "Template not found. Refresh the template list and try again."
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.As(err, &netErr):
		return "Control API unreachable: " + netErr.Err.Error()
	case errors.As(err, &decodeErr):
		return "Unexpected response from the control API (" + decodeErr.Op + ")."
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Unknown error"
}
