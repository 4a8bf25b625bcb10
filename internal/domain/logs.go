package domain

import (
	"fmt"
	"strings"
)

type LogFilter string

const (
	LogFilterAll   LogFilter = ""
	LogFilterError LogFilter = "error"
)

func ParseLogFilter(raw string) (LogFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return LogFilterAll, nil
	case "error", "errors":
		return LogFilterError, nil
	default:
		return "", fmt.Errorf("unsupported log filter %q", raw)
	}
}

func (f LogFilter) Label() string {
	if f == LogFilterAll {
		return "all"
	}
	return string(f)
}

// LogBundle is the text of one log fetch together with the filter that
// produced it.
type LogBundle struct {
	ResourceID ResourceID
	Filter     LogFilter
	Text       string
}
