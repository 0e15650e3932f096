// Package prompt asks questions on the terminal with bubbletea programs.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"savile/internal/savile"
	"savile/internal/tui"
)

// Terminal is an interactive savile.Prompter.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

var _ savile.Prompter = (*Terminal)(nil)

// New returns a Terminal on stdin and stdout.
func New() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) Text(ctx context.Context, p savile.TextPrompt) (string, error) {
	m, err := t.run(ctx, newTextModel(p))
	if err != nil {
		return "", err
	}
	return m.(textModel).Value(), nil
}

func (t *Terminal) Select(ctx context.Context, message string, choices []savile.Choice) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("select: no choices")
	}
	m, err := t.run(ctx, newSelectModel(message, choices))
	if err != nil {
		return "", err
	}
	return m.(selectModel).Value(), nil
}

func (t *Terminal) Confirm(ctx context.Context, message string) (bool, error) {
	m, err := t.run(ctx, newConfirmModel(message))
	if err != nil {
		return false, err
	}
	return m.(confirmModel).Value(), nil
}

func (t *Terminal) Note(title, body string) {
	fmt.Fprintln(t.Out, renderNote(title, body))
}

func (t *Terminal) Info(msg string) {
	fmt.Fprintln(t.Out, infoStyle.Render("● ")+msg)
}

// finisher is implemented by every question model.
type finisher interface {
	tea.Model
	Cancelled() bool
}

func (t *Terminal) run(ctx context.Context, m finisher) (tea.Model, error) {
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(t.In),
		tea.WithOutput(t.Out),
	)
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return nil, savile.ErrCancelled
		}
		return nil, fmt.Errorf("prompt: %w", err)
	}
	if final.(finisher).Cancelled() {
		return nil, savile.ErrCancelled
	}
	return final, nil
}

func renderNote(title, body string) string {
	return noteStyle.Render(noteTitleStyle.Render(title) + "\n\n" + body)
}

var (
	questionStyle  = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorInk)
	answerStyle    = lipgloss.NewStyle().Foreground(tui.ColorAccent)
	placeStyle     = lipgloss.NewStyle().Foreground(tui.ColorDim)
	errorStyle     = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	infoStyle      = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	noteTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	noteStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(tui.ColorDim).
			Padding(0, 1)
)
