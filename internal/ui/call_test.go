package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCallViewShowsRoleOnlyOnceAssigned(t *testing.T) {
	m := NewCallModel("brisk-otter-42", CallActions{})

	if view := m.View(); strings.Contains(view, "(host)") || strings.Contains(view, "(guest)") {
		t.Fatalf("role shown before the server assigned one:\n%s", view)
	}

	// The server decides the role at join time; joining an empty room makes
	// the joiner its host regardless of the subcommand used.
	m.handleUpdate(CallUpdate{Type: UpdateRole, Message: "host"})
	if view := m.View(); !strings.Contains(view, "(host)") {
		t.Fatalf("assigned role missing from view:\n%s", view)
	}
}

func TestCallViewMuteIndicators(t *testing.T) {
	micMuted := false
	m := NewCallModel("abc", CallActions{
		ToggleMic: func() bool { micMuted = !micMuted; return micMuted },
	})
	m.handleUpdate(CallUpdate{Type: UpdateInCall})

	if view := m.View(); !strings.Contains(view, "mic on") {
		t.Fatalf("expected live mic indicator:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	if !micMuted {
		t.Fatal("'m' should invoke the mic toggle")
	}
	if view := m.View(); !strings.Contains(view, "mic muted") {
		t.Fatalf("expected muted mic indicator:\n%s", view)
	}
}
