package console

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#E07A5F")
	colorText    = lipgloss.Color("252")
	colorDim     = lipgloss.Color("245")
	colorFaint   = lipgloss.Color("241")
	colorSuccess = lipgloss.Color("#4ADE80")
	colorFailure = lipgloss.Color("#F87171")
	colorWarning = lipgloss.Color("#F59E0B")
)

type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Section  lipgloss.Style
	Heading  lipgloss.Style
	Detail   lipgloss.Style
	Key      lipgloss.Style
	Empty    lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Success  lipgloss.Style
	Failure  lipgloss.Style
	Neutral  lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style
	Spinner  lipgloss.Style
	Box      lipgloss.Style
}

func NewStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Header:   lipgloss.NewStyle().Foreground(colorFaint),
		Section:  lipgloss.NewStyle().MarginTop(1),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Detail:   lipgloss.NewStyle().Foreground(colorText),
		Key:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Empty:    lipgloss.NewStyle().Faint(true),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		Warning:  lipgloss.NewStyle().Foreground(colorWarning),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
		Failure:  lipgloss.NewStyle().Bold(true).Foreground(colorFailure),
		Neutral:  lipgloss.NewStyle().Foreground(colorDim),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")),
		Help:     lipgloss.NewStyle().Foreground(colorDim),
		Spinner:  lipgloss.NewStyle().Foreground(colorAccent),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1),
	}
}
