package theme

import "github.com/charmbracelet/lipgloss"

// Color palette, terminal-friendly.
var (
	ColorPrimary   = lipgloss.Color("63")  // Purple
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("245") // Light gray
	ColorHighlight = lipgloss.Color("229") // Yellow
)

// Shared styles for the run view and plain CLI output.
var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleRunning = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// Step markers.
const (
	MarkPending = "·"
	MarkOK      = "✓"
	MarkFailed  = "✗"
)

// OK renders a success line.
func OK(s string) string {
	return StyleSuccess.Render(MarkOK) + " " + s
}

// Failed renders a failure line.
func Failed(s string) string {
	return StyleError.Render(MarkFailed + " " + s)
}
