package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/devintest/internal/app"
	"github.com/joacominatel/devintest/internal/config"
	"github.com/joacominatel/devintest/internal/tui/statusbar"
	"github.com/joacominatel/devintest/internal/tui/theme"
)

// ErrAborted is returned when the user quits before the sequence finished.
var ErrAborted = errors.New("run aborted")

// StepState tracks the progress of one step.
type StepState int

const (
	StatePending StepState = iota
	StateRunning
	StateDone
	StateFailed
)

// stepDoneMsg carries the result of an executed step.
type stepDoneMsg struct {
	index  int
	result app.StepResult
}

// Model is the bubbletea model for the demo run view.
type Model struct {
	ctx       context.Context
	cancel    context.CancelFunc
	steps     []app.Step
	states    []StepState
	results   []app.StepResult
	spinner   spinner.Model
	statusbar statusbar.Model
	finished  bool
	err       error
}

// NewModel creates the run view. Steps are executed one after the other and
// the sequence stops at the first failure. Quitting cancels the context of the
// step in flight.
func NewModel(ctx context.Context, steps []app.Step, desc config.Descriptor, strict bool) Model {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.StyleRunning),
	)

	states := make([]StepState, len(steps))
	if len(states) > 0 {
		states[0] = StateRunning
	}

	return Model{
		ctx:       ctx,
		cancel:    cancel,
		steps:     steps,
		states:    states,
		spinner:   s,
		statusbar: statusbar.New(desc.DisplayString(), strict),
		finished:  len(steps) == 0,
	}
}

// Init starts the spinner and the first step.
func (m Model) Init() tea.Cmd {
	if m.finished {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.runStepCmd(0))
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.statusbar.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.finished {
				m.err = ErrAborted
				m.finished = true
			}
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepDoneMsg:
		return m.handleStepDone(msg)
	}

	return m, nil
}

func (m Model) handleStepDone(msg stepDoneMsg) (tea.Model, tea.Cmd) {
	if m.finished {
		return m, nil
	}
	m.results = append(m.results, msg.result)

	if !msg.result.OK() {
		m.states[msg.index] = StateFailed
		m.err = fmt.Errorf("%s: %w", msg.result.Name, msg.result.Err)
		m.finished = true
		m.statusbar.SetMessage(msg.result.Title+" failed", true)
		return m, tea.Quit
	}

	m.states[msg.index] = StateDone
	next := msg.index + 1
	if next >= len(m.steps) {
		m.finished = true
		m.statusbar.SetMessage("all steps completed", false)
		return m, tea.Quit
	}

	m.states[next] = StateRunning
	m.statusbar.SetMessage(m.steps[next].Title+"...", false)
	return m, m.runStepCmd(next)
}

func (m Model) runStepCmd(index int) tea.Cmd {
	ctx, step := m.ctx, m.steps[index]
	return func() tea.Msg {
		return stepDoneMsg{index: index, result: app.RunStep(ctx, step)}
	}
}

// Results returns the outcomes recorded so far.
func (m Model) Results() []app.StepResult {
	return m.results
}

// Err returns the failure that stopped the run, if any.
func (m Model) Err() error {
	return m.err
}

// View renders the step list and the status bar.
func (m Model) View() string {
	lines := []string{theme.StyleTitle.Render("devin_test demo run"), ""}

	for i, step := range m.steps {
		lines = append(lines, m.viewStep(i, step))
	}

	if m.finished && m.err != nil {
		lines = append(lines, "", theme.StyleError.Render("Error: "+m.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(lines, "\n"),
		"",
		m.statusbar.View(),
	) + "\n"
}

func (m Model) viewStep(i int, step app.Step) string {
	var res *app.StepResult
	if i < len(m.results) {
		res = &m.results[i]
	}

	switch m.states[i] {
	case StateRunning:
		if m.finished {
			return theme.StyleMuted.Render(theme.MarkPending + " " + step.Title + " (aborted)")
		}
		return m.spinner.View() + " " + step.Title
	case StateDone:
		detail := ""
		if res != nil {
			detail = theme.StyleMuted.Render(fmt.Sprintf("  %s (%s)", res.Detail, res.Duration.Round(time.Millisecond)))
		}
		return theme.OK(step.Title) + detail
	case StateFailed:
		return theme.Failed(step.Title)
	default:
		return theme.StyleMuted.Render(theme.MarkPending + " " + step.Title)
	}
}

// Run shows the run view until the sequence ends and returns its outcome.
func Run(ctx context.Context, steps []app.Step, desc config.Descriptor, strict bool) ([]app.StepResult, error) {
	model := NewModel(ctx, steps, desc, strict)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run view: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("run view: unexpected model %T", final)
	}
	return m.Results(), m.Err()
}
