package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"savile/internal/batch"
)

// Model renders one batch's progress from a stream of updates.
type Model struct {
	label    string
	updates  <-chan batch.Update
	started  time.Time
	width    int
	total    int
	done     int
	failed   int
	quitting bool
}

type doneMsg struct{}

type updateMsg batch.Update

func NewModel(label string, updates <-chan batch.Update) Model {
	return Model{label: label, updates: updates, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.done += msg.DoneDelta
		m.failed += msg.FailedDelta
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1, float64(m.done)/float64(m.total))
	}

	counts := labelStyle.Render(fmt.Sprintf("%d/%d", m.done, m.total))
	if m.failed > 0 {
		counts += warnStyle.Render(fmt.Sprintf("  failed:%d", m.failed))
	}
	elapsed := time.Since(m.started).Round(100 * time.Millisecond)

	lines := []string{
		titleStyle.Render(m.label) + " " + counts,
		barStyle.Render(renderBar(barWidth, ratio)) + dimStyle.Render(fmt.Sprintf("  %s", elapsed)),
	}
	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan batch.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

// ProgressTracker runs a bubbletea program per batch.
type ProgressTracker struct {
	Output io.Writer
	Input  io.Reader
}

// Track starts a progress display for label. Updates sent on the returned
// channel move the bar; done closes the channel and waits for the display
// to exit.
func (p ProgressTracker) Track(label string) (chan<- batch.Update, func()) {
	updates := make(chan batch.Update, 64)
	var opts []tea.ProgramOption
	if p.Output != nil {
		opts = append(opts, tea.WithOutput(p.Output))
	}
	if p.Input != nil {
		opts = append(opts, tea.WithInput(p.Input))
	}
	program := tea.NewProgram(NewModel(label, updates), opts...)

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		_, _ = program.Run()
		// The program can exit before the batch ends; keep senders moving.
		for range updates {
		}
	}()

	return updates, func() {
		close(updates)
		<-uiDone
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
