// Package dialog presents blocking user-facing messages. On a terminal it
// renders a small modal with bubbletea; without one it degrades to plain
// stderr output so batch invocations still see the diagnostic.
package dialog

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 3)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
)

// Model is the bubbletea model behind a message or confirm dialog.
type Model struct {
	title   string
	message string
	confirm bool

	choice   bool
	answered bool
	quitting bool
}

// NewMessage builds a dialog with a single OK action.
func NewMessage(title, message string) Model {
	return Model{title: title, message: message}
}

// NewConfirm builds a yes/no dialog. The initial selection is "no".
func NewConfirm(title, message string) Model {
	return Model{title: title, message: message, confirm: true}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.quitting = true
		return m, tea.Quit

	case "left", "right", "h", "l", "tab":
		if m.confirm {
			m.choice = !m.choice
		}

	case "y":
		if m.confirm {
			m.choice = true
			m.answered = true
			m.quitting = true
			return m, tea.Quit
		}

	case "n":
		if m.confirm {
			m.choice = false
			m.answered = true
			m.quitting = true
			return m, tea.Quit
		}

	case "enter", " ":
		m.answered = true
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	body := titleStyle.Render(m.title) + "\n\n" + m.message + "\n\n"
	if m.confirm {
		yes, no := "  yes  ", "  no  "
		if m.choice {
			yes = selectedStyle.Render("> yes <")
		} else {
			no = selectedStyle.Render("> no <")
		}
		body += yes + "   " + no + "\n\n" + hintStyle.Render("←/→ select · enter confirm · esc cancel")
	} else {
		body += hintStyle.Render("press enter to continue")
	}

	return boxStyle.Render(body) + "\n"
}

// Confirmed reports whether the user explicitly chose yes.
func (m Model) Confirmed() bool {
	return m.answered && m.choice
}

// isInteractive reports whether both ends of the conversation are terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// Show displays a blocking message and waits for acknowledgement. Without a
// terminal the message is printed to stderr and Show returns immediately.
func Show(title, message string) {
	if !isInteractive() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
		return
	}

	p := tea.NewProgram(NewMessage(title, message), tea.WithOutput(os.Stderr))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
	}
}

// Confirm asks a yes/no question. Without a terminal it returns false: batch
// invocations never get an implicit yes.
func Confirm(title, message string) bool {
	if !isInteractive() {
		fmt.Fprintf(os.Stderr, "%s: %s (no terminal, assuming no)\n", title, message)
		return false
	}

	p := tea.NewProgram(NewConfirm(title, message), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return false
	}
	m, ok := final.(Model)
	return ok && m.Confirmed()
}
