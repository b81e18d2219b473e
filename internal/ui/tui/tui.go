// Package tui is the full-screen bubbletea front end for a game.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/genie/internal/game"
	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// LeaderboardSize is the number of rows in the sidebar.
const LeaderboardSize = 5

// TUI forwards notifications from other goroutines into a running program.
type TUI struct {
	program *tea.Program
}

func NewTUI(p *tea.Program) *TUI {
	return &TUI{program: p}
}

// ShowTurn is a no-op; the model renders turns itself.
func (t *TUI) ShowTurn(game.Turn) {}

func (t *TUI) Log(msg string) {
	t.program.Send(LogMsg(msg))
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	questionStyle = lipgloss.NewStyle().Bold(true)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginLeft(2)
)

type LogMsg string

// eventLog collects bus events. Bubbletea calls Update on one goroutine,
// so it needs no locking.
type eventLog struct {
	lines []string
}

const (
	fieldName = iota
	fieldImage
	fieldTrait
)

type Model struct {
	ctx      context.Context
	game     *game.Game
	events   *eventLog
	Turn     game.Turn
	Err      error
	Log      []string
	Inputs   []textinput.Model
	Focus    int
	Progress progress.Model
	Viewport viewport.Model
	Quitting bool
	Ready    bool
	Width    int
	Height   int
}

func NewModel(ctx context.Context, g *game.Game) Model {
	events := &eventLog{}
	g.Bus().Subscribe(func(e game.Event) {
		events.lines = append(events.lines, describe(e))
	})

	inputs := make([]textinput.Model, 3)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 120
		ti.Width = 40
		inputs[i] = ti
	}
	inputs[fieldName].Placeholder = "Who were you thinking of?"
	inputs[fieldImage].Placeholder = "Image URL (optional)"
	inputs[fieldTrait].Placeholder = "What makes them unique? (e.g. 'has a beard')"

	m := Model{
		ctx:      ctx,
		game:     g,
		events:   events,
		Inputs:   inputs,
		Progress: progress.New(progress.WithDefaultGradient()),
	}
	m, _ = m.apply(g.Turn(), nil)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			return m, tea.Quit
		}
		if msg.Type == tea.KeyCtrlR {
			return m.restart()
		}
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if m.Quitting {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		if !m.Ready {
			m.Viewport = viewport.New(msg.Width, 6)
			m.Ready = true
		} else {
			m.Viewport.Width = msg.Width
		}
		m.Progress.Width = min(msg.Width-4, 40)

	case LogMsg:
		m.Log = append(m.Log, string(msg))
	}

	m = m.syncLog()
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.Turn.Kind == game.KindLearnPrompt {
		return m.handleLearnKey(msg)
	}

	switch key {
	case "q":
		m.Quitting = true
		return m, nil
	case "r":
		return m.restart()
	}

	switch m.Turn.Kind {
	case game.KindQuestion:
		a, ok := knowledge.ParseAnswer(key)
		if !ok {
			return m, nil
		}
		turn, err := m.game.Answer(m.ctx, m.Turn.Trait, a)
		return m.apply(turn, err)

	case game.KindGuess:
		var correct bool
		switch key {
		case "y":
			correct = true
		case "n":
		default:
			return m, nil
		}
		turn, err := m.game.ConfirmGuess(m.ctx, correct)
		return m.apply(turn, err)

	case game.KindResolved:
		if key == "enter" || key == "y" {
			return m.restart()
		}
	}
	return m, nil
}

func (m Model) handleLearnKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		return m, m.focusInput((m.Focus + 1) % len(m.Inputs))
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.focusInput((m.Focus + len(m.Inputs) - 1) % len(m.Inputs))
	case tea.KeyEnter:
		if m.Focus < fieldTrait {
			return m, m.focusInput(m.Focus + 1)
		}
		turn, err := m.game.SubmitLearning(m.ctx,
			m.Inputs[fieldName].Value(),
			m.Inputs[fieldTrait].Value(),
			m.Inputs[fieldImage].Value())
		if err != nil {
			m.Err = err
			return m, nil
		}
		for _, w := range turn.Warnings {
			m.Log = append(m.Log, "note: "+w)
		}
		m.resetInputs()
		return m.apply(turn, nil)
	}

	var cmd tea.Cmd
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	return m, cmd
}

// apply shows turn, focusing the first input when learning begins.
func (m Model) apply(turn game.Turn, err error) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if turn.Kind == game.KindLearnPrompt && m.Turn.Kind != game.KindLearnPrompt {
		cmd = m.focusInput(fieldName)
	}
	m.Turn = turn
	m.Err = err
	return m, cmd
}

func (m Model) restart() (Model, tea.Cmd) {
	turn, err := m.game.Restart(m.ctx)
	m.resetInputs()
	m.Turn = game.Turn{}
	return m.apply(turn, err)
}

func (m *Model) focusInput(i int) tea.Cmd {
	for j := range m.Inputs {
		m.Inputs[j].Blur()
	}
	m.Focus = i
	return m.Inputs[i].Focus()
}

func (m *Model) resetInputs() {
	for i := range m.Inputs {
		m.Inputs[i].Reset()
		m.Inputs[i].Blur()
	}
	m.Focus = fieldName
}

func (m Model) syncLog() Model {
	for _, line := range m.events.lines {
		if line != "" {
			m.Log = append(m.Log, line)
		}
	}
	m.events.lines = m.events.lines[:0]
	if m.Ready {
		m.Viewport.SetContent(strings.Join(m.Log, "\n"))
		m.Viewport.GotoBottom()
	}
	return m
}

func (m Model) View() string {
	if !m.Ready {
		return "\n  Initializing..."
	}

	header := titleStyle.Render(" Genie ") + infoStyle.Render(" Think of a character, real or fictional. ")

	var main strings.Builder
	asked := m.game.Session().Asked()
	maxQ := m.game.Policy().MaxQuestions

	switch m.Turn.Kind {
	case game.KindQuestion:
		main.WriteString(infoStyle.Render(fmt.Sprintf("Question #%d", m.Turn.Index)) + "\n\n")
		main.WriteString(questionStyle.Render(fmt.Sprintf("Does your character have the trait: '%s'?", m.Turn.Trait)) + "\n\n")
		for i, c := range knowledge.Choices {
			main.WriteString(fmt.Sprintf("  [%d] %s\n", i+1, c.Label))
		}
	case game.KindGuess:
		main.WriteString(questionStyle.Render(fmt.Sprintf("I'm thinking of... %s!", m.Turn.Entity)) + "\n\n")
		if m.Turn.Image != "" {
			main.WriteString(helpStyle.Render(m.Turn.Image) + "\n\n")
		}
		main.WriteString("Is that right? [y/n]\n")
	case game.KindLearnPrompt:
		main.WriteString(questionStyle.Render("I give up! Teach me.") + "\n\n")
		for _, in := range m.Inputs {
			main.WriteString(in.View() + "\n")
		}
		main.WriteString(helpStyle.Render("\ntab: next field • enter: submit") + "\n")
	case game.KindResolved:
		if m.Turn.Mode == game.Won {
			main.WriteString(infoStyle.Render("Yes! I read your mind.") + "\n")
		} else {
			main.WriteString(infoStyle.Render("Success! I'll remember that.") + "\n")
		}
		main.WriteString("\nPress enter to play again.\n")
	}

	if m.Err != nil {
		main.WriteString("\n" + errorStyle.Render(m.Err.Error()) + "\n")
		if hint := errors.FlattenHints(m.Err); hint != "" {
			main.WriteString(helpStyle.Render(hint) + "\n")
		}
	}

	prog := m.Progress.ViewAs(min(float64(asked)/float64(maxQ), 1))
	body := lipgloss.JoinHorizontal(lipgloss.Top, main.String(), sidebarStyle.Render(m.leaderboard()))

	view := fmt.Sprintf("%s\n\n%s\n\n%s %d/%d\n\n%s\n%s",
		header,
		body,
		prog, asked, maxQ,
		m.Viewport.View(),
		helpStyle.Render("r: restart • q: quit"))

	if m.Quitting {
		return view + "\n  Quitting...\n"
	}

	return view
}

func (m Model) leaderboard() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("Leaderboard") + "\n")
	for i, s := range m.game.Knowledge().TopN(LeaderboardSize) {
		b.WriteString(fmt.Sprintf("%d. %s (%d)\n", i+1, s.Name, s.GuessCount))
	}
	return strings.TrimRight(b.String(), "\n")
}

func describe(e game.Event) string {
	switch e.Type {
	case game.EventAnswerRecorded:
		return fmt.Sprintf("%s: %s", e.Trait, e.Answer)
	case game.EventGuessMade:
		return fmt.Sprintf("guessing %s", e.Entity)
	case game.EventGuessConfirmed:
		return fmt.Sprintf("%s guessed %d times", e.Entity, e.GuessCount)
	case game.EventLearned:
		return fmt.Sprintf("learned %s (%s)", e.Entity, e.Trait)
	case game.EventPersistFailed:
		return fmt.Sprintf("save failed: %v", e.Err)
	case game.EventSessionReset:
		return "new game"
	}
	return ""
}
