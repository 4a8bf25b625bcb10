package domain

import "strings"

type AIResult struct {
	Text string
}

// HTML renders the result for an HTML view. Only line breaks are converted.
func (r AIResult) HTML() string {
	return strings.ReplaceAll(r.Text, "\n", "<br/>")
}
