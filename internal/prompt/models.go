package prompt

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"savile/internal/savile"
)

func isCancel(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc
}

type textModel struct {
	prompt    savile.TextPrompt
	value     []rune
	err       string
	done      bool
	cancelled bool
}

func newTextModel(p savile.TextPrompt) textModel {
	return textModel{prompt: p}
}

func (m textModel) Value() string   { return string(m.value) }
func (m textModel) Cancelled() bool { return m.cancelled }

func (m textModel) Init() tea.Cmd { return nil }

func (m textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case isCancel(key):
		m.cancelled = true
		return m, tea.Quit
	case key.Type == tea.KeyEnter:
		if m.prompt.Validate != nil {
			if err := m.prompt.Validate(m.Value()); err != nil {
				m.err = err.Error()
				return m, nil
			}
		}
		m.err = ""
		m.done = true
		return m, tea.Quit
	case key.Type == tea.KeyBackspace:
		if len(m.value) > 0 {
			m.value = m.value[:len(m.value)-1]
		}
	case key.Type == tea.KeySpace:
		m.value = append(m.value, ' ')
	case key.Type == tea.KeyRunes:
		m.value = append(m.value, key.Runes...)
	}
	return m, nil
}

func (m textModel) View() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("◆ "+m.prompt.Message) + "\n")
	switch {
	case m.done:
		b.WriteString("  " + answerStyle.Render(m.Value()) + "\n")
		return b.String()
	case len(m.value) == 0 && m.prompt.Placeholder != "":
		b.WriteString("  " + placeStyle.Render(m.prompt.Placeholder) + "\n")
	default:
		b.WriteString("  " + m.Value() + "█\n")
	}
	if m.err != "" {
		b.WriteString("  " + errorStyle.Render("▲ "+m.err) + "\n")
	}
	return b.String()
}

type selectModel struct {
	message   string
	choices   []savile.Choice
	cursor    int
	done      bool
	cancelled bool
}

func newSelectModel(message string, choices []savile.Choice) selectModel {
	return selectModel{message: message, choices: choices}
}

func (m selectModel) Value() string   { return m.choices[m.cursor].Value }
func (m selectModel) Cancelled() bool { return m.cancelled }

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case isCancel(key):
		m.cancelled = true
		return m, tea.Quit
	case key.Type == tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case key.Type == tea.KeyUp, key.String() == "k":
		m.cursor = (m.cursor - 1 + len(m.choices)) % len(m.choices)
	case key.Type == tea.KeyDown, key.String() == "j":
		m.cursor = (m.cursor + 1) % len(m.choices)
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("◆ "+m.message) + "\n")
	if m.done {
		b.WriteString("  " + answerStyle.Render(m.choices[m.cursor].Label) + "\n")
		return b.String()
	}
	for i, c := range m.choices {
		if i == m.cursor {
			b.WriteString("  " + answerStyle.Render("● "+c.Label) + "\n")
		} else {
			b.WriteString("  " + placeStyle.Render("○ "+c.Label) + "\n")
		}
	}
	return b.String()
}

type confirmModel struct {
	message   string
	yes       bool
	done      bool
	cancelled bool
}

func newConfirmModel(message string) confirmModel {
	return confirmModel{message: message, yes: true}
}

func (m confirmModel) Value() bool     { return m.yes }
func (m confirmModel) Cancelled() bool { return m.cancelled }

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case isCancel(key):
		m.cancelled = true
		return m, tea.Quit
	case key.Type == tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case key.Type == tea.KeyLeft, key.Type == tea.KeyRight, key.Type == tea.KeyTab:
		m.yes = !m.yes
	case strings.EqualFold(key.String(), "y"):
		m.yes, m.done = true, true
		return m, tea.Quit
	case strings.EqualFold(key.String(), "n"):
		m.yes, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	question := questionStyle.Render("◆ " + m.message)
	if m.done {
		answer := "No"
		if m.yes {
			answer = "Yes"
		}
		return fmt.Sprintf("%s\n  %s\n", question, answerStyle.Render(answer))
	}
	yes, no := placeStyle.Render("○ Yes"), answerStyle.Render("● No")
	if m.yes {
		yes, no = answerStyle.Render("● Yes"), placeStyle.Render("○ No")
	}
	return fmt.Sprintf("%s\n  %s / %s\n", question, yes, no)
}
