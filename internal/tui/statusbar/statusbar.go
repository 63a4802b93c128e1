package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/devintest/internal/tui/theme"
)

// Model is the status bar shown under the run view.
type Model struct {
	width    int
	endpoint string
	strict   bool
	message  string
	failed   bool
}

// New creates a status bar for the given masked endpoint.
func New(endpoint string, strict bool) Model {
	return Model{endpoint: endpoint, strict: strict}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetMessage sets the right-hand message. failed colors the indicator red.
func (m *Model) SetMessage(msg string, failed bool) {
	m.message = msg
	m.failed = failed
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar
	if m.width > 0 {
		style = style.Width(m.width)
	}

	color := theme.ColorSuccess
	if m.failed {
		color = theme.ColorError
	}
	left := lipgloss.NewStyle().Foreground(color).Render("●") + " " + m.endpoint

	mode := "lenient"
	if m.strict {
		mode = "strict"
	}
	right := mode + " │ q: Quit"
	if m.message != "" {
		right = m.message + " │ " + right
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
