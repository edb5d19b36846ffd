package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cribeiro84/prhub/internal/model"
)

// Color palette
var (
	colorGreen   = lipgloss.Color("42")
	colorYellow  = lipgloss.Color("214")
	colorRed     = lipgloss.Color("196")
	colorBlue    = lipgloss.Color("39")
	colorCyan    = lipgloss.Color("45")
	colorGray    = lipgloss.Color("245")
	colorMagenta = lipgloss.Color("165")
	colorWhite   = lipgloss.Color("255")
	colorBorder  = lipgloss.Color("240")
)

// Styles defines the visual styles for the hub dashboard
type Styles struct {
	Box lipgloss.Style

	Title    lipgloss.Style
	Header   lipgloss.Style
	Text     lipgloss.Style
	Faint    lipgloss.Style
	Selected lipgloss.Style
	New      lipgloss.Style
	Draft    lipgloss.Style

	Severity map[model.Severity]lipgloss.Style
	Vote     map[model.Vote]lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGray),

		Text: lipgloss.NewStyle().
			Foreground(colorWhite),

		Faint: lipgloss.NewStyle().
			Foreground(colorGray),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("236")).
			Foreground(colorWhite),

		New: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan),

		Draft: lipgloss.NewStyle().
			Italic(true).
			Foreground(colorGray),

		Severity: map[model.Severity]lipgloss.Style{
			model.SeverityFailed:  lipgloss.NewStyle().Foreground(colorRed),
			model.SeverityWarning: lipgloss.NewStyle().Foreground(colorYellow),
			model.SeveritySuccess: lipgloss.NewStyle().Foreground(colorGreen),
			model.SeverityRunning: lipgloss.NewStyle().Foreground(colorBlue),
			model.SeverityWaiting: lipgloss.NewStyle().Foreground(colorMagenta),
			model.SeverityQueued:  lipgloss.NewStyle().Foreground(colorGray),
		},

		Vote: map[model.Vote]lipgloss.Style{
			model.VoteApproved:                lipgloss.NewStyle().Foreground(colorGreen),
			model.VoteApprovedWithSuggestions: lipgloss.NewStyle().Foreground(colorGreen),
			model.VoteWaitingForAuthor:        lipgloss.NewStyle().Foreground(colorYellow),
			model.VoteRejected:                lipgloss.NewStyle().Foreground(colorRed),
		},
	}
}

// SeverityStyle returns the style used for a status severity.
func (s Styles) SeverityStyle(sev model.Severity) lipgloss.Style {
	if style, ok := s.Severity[sev]; ok {
		return style
	}
	return s.Text
}

// StatusSummary returns a styled summary of severity counts
func (s Styles) StatusSummary(counts map[model.Severity]int) string {
	order := []model.Severity{
		model.SeverityFailed,
		model.SeverityWarning,
		model.SeverityRunning,
		model.SeverityWaiting,
		model.SeverityQueued,
		model.SeveritySuccess,
	}
	var parts []string
	for _, sev := range order {
		if n := counts[sev]; n > 0 {
			parts = append(parts, s.SeverityStyle(sev).Render(string(sev)+": "+itoa(n)))
		}
	}
	if len(parts) == 0 {
		return s.Faint.Render("no pull requests")
	}

	result := ""
	for i, part := range parts {
		if i > 0 {
			result += "    "
		}
		result += part
	}
	return result
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	if neg {
		s = "-" + s
	}
	return s
}
