package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/genie/internal/game"
	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/policy"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m = send(m, runes(string(r)))
	}
	return m
}

func newModel(entities []knowledge.Entity) (Model, *game.Game) {
	g := game.New(knowledge.New(nil, entities), policy.New(policy.DefaultPolicy), nil)
	m := NewModel(context.Background(), g)
	return send(m, tea.WindowSizeMsg{Width: 100, Height: 40}), g
}

func TestModel_Win(t *testing.T) {
	m, g := newModel(knowledge.DefaultEntities())

	if view := m.View(); !strings.Contains(view, "Question #1") || !strings.Contains(view, "'real'") {
		t.Fatalf("expected first question, got:\n%s", view)
	}

	// Digits follow the choice order: 1 is Yes, 5 is No.
	m = send(m, runes("5"), runes("1"), runes("1"))
	if m.Turn.Kind != game.KindGuess || m.Turn.Entity != "Spider-Man" {
		t.Fatalf("expected Spider-Man guess, got %+v", m.Turn)
	}
	view := m.View()
	if !strings.Contains(view, "I'm thinking of... Spider-Man!") || !strings.Contains(view, "https://tinyurl.com/spidey-img") {
		t.Errorf("expected guess with image url, got:\n%s", view)
	}

	m = send(m, runes("y"))
	if m.Turn.Kind != game.KindResolved || m.Turn.Mode != game.Won {
		t.Fatalf("expected win, got %+v", m.Turn)
	}
	if !strings.Contains(m.View(), "1. Spider-Man (1)") {
		t.Errorf("expected leaderboard to show the win, got:\n%s", m.View())
	}
	if e, _ := g.Knowledge().Get("Spider-Man"); e.Metadata.GuessCount != 1 {
		t.Errorf("expected guess_count 1, got %d", e.Metadata.GuessCount)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Turn.Kind != game.KindQuestion || m.Turn.Index != 1 {
		t.Errorf("expected a new game, got %+v", m.Turn)
	}
}

func TestModel_Teach(t *testing.T) {
	m, g := newModel(knowledge.DefaultEntities())

	m = send(m, runes("n"), runes("y"), runes("y"), runes("n"))
	if m.Turn.Kind != game.KindLearnPrompt {
		t.Fatalf("expected learn prompt, got %+v", m.Turn)
	}

	// q and r are text while learning.
	m = typeText(m, "Robin")
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})

	// Submitting with an empty trait keeps the form.
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Turn.Kind != game.KindLearnPrompt || m.Err == nil {
		t.Fatalf("expected to stay in learning with an error, got %+v, %v", m.Turn, m.Err)
	}

	m = typeText(m, "has a sidekick")
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Turn.Kind != game.KindResolved || m.Turn.Mode != game.Taught {
		t.Fatalf("expected taught, got %+v (err %v)", m.Turn, m.Err)
	}

	robin, ok := g.Knowledge().Get("Robin")
	if !ok || robin.Traits["has a sidekick"] != 1 || robin.Traits["real"] != 0 {
		t.Errorf("unexpected Robin: %+v", robin)
	}
	if m.Inputs[fieldName].Value() != "" {
		t.Error("expected inputs to be cleared")
	}
}

func TestModel_Keys(t *testing.T) {
	t.Run("Quit", func(t *testing.T) {
		m, _ := newModel(knowledge.DefaultEntities())
		next, cmd := m.Update(runes("q"))
		if !next.(Model).Quitting || cmd == nil {
			t.Error("expected q to quit")
		}
	})

	t.Run("Ctrl+C while learning", func(t *testing.T) {
		m, _ := newModel(nil)
		if m.Turn.Kind != game.KindLearnPrompt {
			t.Fatalf("expected learn prompt on an empty store, got %+v", m.Turn)
		}
		m = send(m, runes("q"))
		if m.Quitting {
			t.Error("q must be typed into the form while learning")
		}
		m = send(m, tea.KeyMsg{Type: tea.KeyCtrlC})
		if !m.Quitting {
			t.Error("expected ctrl+c to quit")
		}
	})

	t.Run("Restart", func(t *testing.T) {
		m, g := newModel(knowledge.DefaultEntities())
		m = send(m, runes("1"), runes("r"))
		if m.Turn.Index != 1 || g.Session().Asked() != 0 {
			t.Errorf("expected restart, got %+v", m.Turn)
		}
	})

	t.Run("Ignored keys", func(t *testing.T) {
		m, g := newModel(knowledge.DefaultEntities())
		m = send(m, runes("x"), runes("9"))
		if g.Session().Asked() != 0 || m.Turn.Index != 1 {
			t.Error("expected unknown keys to be ignored")
		}
	})
}

func TestModel_View(t *testing.T) {
	g := game.New(knowledge.New(nil, knowledge.DefaultEntities()), policy.New(policy.DefaultPolicy), nil)
	m := NewModel(context.Background(), g)
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("expected initializing view before the window size is known")
	}

	m = send(m, tea.WindowSizeMsg{Width: 80, Height: 24}, LogMsg("knowledge base changed"))
	view := m.View()
	for _, want := range []string{"Genie", "Leaderboard", "0/5", "knowledge base changed"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}
