package dialog

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, keys ...string) (Model, bool) {
	t.Helper()
	quit := false
	for _, k := range keys {
		next, cmd := m.Update(keyPress(k))
		var ok bool
		m, ok = next.(Model)
		if !ok {
			t.Fatalf("Update returned %T, want Model", next)
		}
		if cmd != nil {
			quit = true
		}
	}
	return m, quit
}

func TestMessage_EnterAcknowledges(t *testing.T) {
	m, quit := update(t, NewMessage("keywarden", "already running"))
	if quit {
		t.Fatal("dialog quit before any input")
	}

	m, quit = update(t, m, "enter")
	if !quit {
		t.Error("enter should quit the dialog")
	}
	if m.Confirmed() {
		t.Error("a message dialog never reports confirmation")
	}
}

func TestConfirm_DefaultsToNo(t *testing.T) {
	m, _ := update(t, NewConfirm("keywarden", "overwrite?"), "enter")
	if m.Confirmed() {
		t.Error("enter on the default selection must mean no")
	}
}

func TestConfirm_SelectYes(t *testing.T) {
	m, quit := update(t, NewConfirm("keywarden", "overwrite?"), "right", "enter")
	if !quit {
		t.Fatal("enter should quit the dialog")
	}
	if !m.Confirmed() {
		t.Error("selecting yes then enter must confirm")
	}
}

func TestConfirm_ShortcutKeys(t *testing.T) {
	m, _ := update(t, NewConfirm("keywarden", "overwrite?"), "y")
	if !m.Confirmed() {
		t.Error("y must confirm")
	}

	m, _ = update(t, NewConfirm("keywarden", "overwrite?"), "n")
	if m.Confirmed() {
		t.Error("n must decline")
	}
}

func TestConfirm_EscapeDeclines(t *testing.T) {
	m, quit := update(t, NewConfirm("keywarden", "overwrite?"), "esc")
	if !quit {
		t.Fatal("esc should quit the dialog")
	}
	if m.Confirmed() {
		t.Error("esc must not confirm")
	}
}

func TestView_ContainsMessage(t *testing.T) {
	view := NewMessage("keywarden", "already running").View()
	if !strings.Contains(view, "already running") {
		t.Errorf("view does not contain the message: %q", view)
	}
	if !strings.Contains(view, "keywarden") {
		t.Errorf("view does not contain the title: %q", view)
	}
}
