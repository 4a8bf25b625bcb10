package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type Options struct {
	Now      time.Time
	Location *time.Location
	// Cursor highlights one worker row. Negative means no highlight.
	Cursor int
	Busy   application.BusyFlags
	Banner string
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.Local
}

var workerColumns = []string{"Name", "Status", "Base Email", "Users", "Uptime (min)", "Emails Sent"}

func WorkersView(s Styles, snap application.RegistrySnapshot, opts Options) string {
	header := fmt.Sprintf("workers: %d", len(snap.Resources))
	if !snap.RefreshedAt.IsZero() && !opts.Now.IsZero() {
		header += " · refreshed " + humanize.RelTime(snap.RefreshedAt, opts.Now, "ago", "from now")
	}

	lines := []string{
		s.Title.Render("Mail Workers"),
		s.Header.Render(header),
	}

	if banner := bannerText(snap.Err, opts.Banner); banner != "" {
		lines = append(lines, s.Error.Render(banner))
	}
	if busy := busyLabel(opts.Busy); busy != "" {
		lines = append(lines, s.Warning.Render(busy))
	}

	if len(snap.Resources) == 0 {
		lines = append(lines, s.Section.Render(s.Empty.Render("No containers found.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	rows := make([][]string, 0, len(snap.Resources))
	for _, r := range snap.Resources {
		rows = append(rows, []string{
			r.Name,
			r.Status.Label(),
			r.BaseEmail,
			humanize.Comma(int64(r.UserCount)),
			humanize.Comma(r.UptimeMinutes()),
			humanize.Comma(int64(r.EmailsSent)),
		})
	}

	table := renderTable(s, workerColumns, rows, opts.Cursor)
	lines = append(lines, s.Section.Render(table))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func DetailView(s Styles, view application.DetailView, opts Options) string {
	if !view.Open {
		return s.Empty.Render("No worker selected.")
	}

	sections := []string{
		s.Title.Render(fmt.Sprintf("Worker %s", view.ResourceID)),
		statsSection(s, view),
		logsSection(s, view),
		deliveriesSection(s, view, opts),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func statsSection(s Styles, view application.DetailView) string {
	lines := []string{s.Heading.Render(fmt.Sprintf("Container Stats for %s", view.ResourceID))}

	switch {
	case view.Stats != nil:
		st := view.Stats
		lines = append(lines,
			keyValue(s, "CPU", fmt.Sprintf("%.2f%%", st.CPUPercent)),
			keyValue(s, "Memory", MemoryLine(*st)),
			keyValue(s, "Uptime", fmt.Sprintf("%d seconds", st.UptimeSeconds)),
			keyValue(s, "Emails Sent", humanize.Comma(int64(st.EmailsSent))),
		)
	case view.StatsLoading:
		lines = append(lines, s.Empty.Render("Loading stats..."))
	default:
		lines = append(lines, s.Empty.Render("No stats available."))
	}
	if view.StatsErr != nil {
		lines = append(lines, s.Error.Render(application.DescribeError(view.StatsErr)))
	}

	return s.Section.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// MemoryLine formats usage against the limit with the client-side percent.
func MemoryLine(st domain.StatsSnapshot) string {
	return fmt.Sprintf("%s / %s (%.2f%%)",
		humanize.IBytes(nonNegative(st.MemoryUsageBytes)),
		humanize.IBytes(nonNegative(st.MemoryLimitBytes)),
		st.MemoryPercent(),
	)
}

func logsSection(s Styles, view application.DetailView) string {
	lines := []string{s.Heading.Render(LogsHeading(view))}
	lines = append(lines, LogsBody(s, view))
	if view.LogsErr != nil {
		lines = append(lines, s.Error.Render(application.DescribeError(view.LogsErr)))
	}
	return s.Section.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// LogsHeading labels the shown text with the filter of the fetch that produced
// it. A pending fetch for another filter is only hinted at.
func LogsHeading(view application.DetailView) string {
	if view.Logs == nil {
		return fmt.Sprintf("Logs (filter: %s)", view.Filter.Label())
	}
	heading := fmt.Sprintf("Logs (filter: %s)", view.Logs.Filter.Label())
	if view.LogsLoading && view.Logs.Filter != view.Filter {
		heading += fmt.Sprintf(" loading %s...", view.Filter.Label())
	}
	return heading
}

// LogsBody is the log text alone, used by scrolling views.
func LogsBody(s Styles, view application.DetailView) string {
	switch {
	case view.Logs != nil && strings.TrimSpace(view.Logs.Text) != "":
		return s.Detail.Render(view.Logs.Text)
	case view.LogsLoading:
		return s.Empty.Render("Loading logs...")
	default:
		return s.Empty.Render("No logs available.")
	}
}

var deliveryColumns = []string{"Recipient", "Subject", "Status", "Timestamp", "Snippet"}

func deliveriesSection(s Styles, view application.DetailView, opts Options) string {
	lines := []string{s.Heading.Render("Email Logs")}

	if view.DeliveriesLoading {
		lines = append(lines, s.Empty.Render("Loading emails..."))
	}
	if view.DeliveriesErr != nil {
		lines = append(lines, s.Error.Render(application.DescribeError(view.DeliveriesErr)))
	}

	switch {
	case view.DeliveriesLoading:
	case len(view.Deliveries) == 0:
		lines = append(lines, s.Empty.Render("No emails logged yet."))
	default:
		rows := make([][]string, 0, len(view.Deliveries))
		for _, e := range view.Deliveries {
			rows = append(rows, []string{
				e.To,
				e.Subject,
				DeliveryStatusLabel(s, e.Status),
				e.LocalTime(opts.location()).Format("2006-01-02 15:04:05"),
				snippet(e.BodySnippet, 40),
			})
		}
		lines = append(lines, renderTable(s, deliveryColumns, rows, -1))
	}

	return s.Section.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func DeliveryStatusLabel(s Styles, status domain.DeliveryStatus) string {
	label := string(status)
	if label == "" {
		label = "unknown"
	}
	switch status.Kind() {
	case domain.DeliveryStatusKindSuccess:
		return s.Success.Render(label)
	case domain.DeliveryStatusKindFailure:
		return s.Failure.Render(label)
	default:
		return s.Neutral.Render(label)
	}
}

func renderTable(s Styles, columns []string, rows [][]string, cursor int) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, s.Header.Render("  "+joinCells(columns, widths)))
	for i, row := range rows {
		prefix := "  "
		line := joinCells(row, widths)
		if i == cursor {
			prefix = "> "
			line = s.Selected.Render(line)
		}
		lines = append(lines, prefix+line)
	}
	return strings.Join(lines, "\n")
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

func keyValue(s Styles, key, value string) string {
	return s.Key.Render(key+":") + " " + s.Detail.Render(value)
}

func bannerText(err error, banner string) string {
	if banner != "" {
		return banner
	}
	return application.DescribeError(err)
}

func busyLabel(b application.BusyFlags) string {
	var parts []string
	if b.Creating {
		parts = append(parts, "Creating...")
	}
	if b.Deleting {
		parts = append(parts, "Deleting...")
	}
	if b.Sending {
		parts = append(parts, "Sending...")
	}
	if b.SavingTemplate {
		parts = append(parts, "Saving template...")
	}
	return strings.Join(parts, " ")
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}

func nonNegative(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
