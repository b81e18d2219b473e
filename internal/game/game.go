// Package game drives a single guessing session: it asks questions, scores
// the answers, decides when to guess, and hands wrong guesses to learning.
package game

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/genie/internal/engine"
	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/metrics"
	"github.com/felixgeelhaar/genie/internal/observe"
	"github.com/felixgeelhaar/genie/internal/policy"
	"github.com/felixgeelhaar/genie/internal/teach"
)

// Kind identifies what a Turn asks of the player.
type Kind string

const (
	KindQuestion    Kind = "question"
	KindGuess       Kind = "guess"
	KindLearnPrompt Kind = "learn_prompt"
	KindResolved    Kind = "resolved"
)

// Turn is what the presentation layer shows next.
type Turn struct {
	Kind Kind
	// Index is the 1-based question number.
	Index  int
	Trait  string
	Entity string
	Image  string
	Mode   Outcome
	// Warnings are non-fatal remarks about a learning submission.
	Warnings []string
}

// Game is a session state machine over a knowledge base. It is not safe for
// concurrent use, except for RequestReload.
type Game struct {
	kb        *knowledge.Base
	decider   *policy.Decider
	validator *teach.Validator
	observe   *observe.Observer
	bus       *EventBus
	session   *Session
	reload    atomic.Bool
}

// New starts a game with a fresh session.
func New(kb *knowledge.Base, d *policy.Decider, o *observe.Observer) *Game {
	if o == nil {
		o = observe.Discard()
	}
	g := &Game{
		kb:        kb,
		decider:   d,
		validator: teach.New(),
		observe:   o,
		bus:       NewEventBus(),
	}
	g.start()
	return g
}

// Bus returns the game's event bus.
func (g *Game) Bus() *EventBus {
	return g.bus
}

// Session returns a copy of the current session.
func (g *Game) Session() Session {
	return g.session.clone()
}

// Knowledge returns the underlying knowledge base.
func (g *Game) Knowledge() *knowledge.Base {
	return g.kb
}

// Policy returns the thresholds in effect.
func (g *Game) Policy() policy.Policy {
	return g.decider.Policy()
}

// RequestReload marks the knowledge base as changed on disk. The reload
// happens on the next Restart, never mid-session.
func (g *Game) RequestReload() {
	g.reload.Store(true)
}

// Candidates ranks every entity against the current answers.
func (g *Game) Candidates() []engine.Candidate {
	return engine.Rank(g.kb.Entities(), g.session.Responses)
}

// Turn describes what the player should see now.
func (g *Game) Turn() Turn {
	s := g.session
	switch s.State {
	case policy.Asking:
		return Turn{Kind: KindQuestion, Index: s.Asked() + 1, Trait: s.Pending}
	case policy.Guessing:
		t := Turn{Kind: KindGuess, Entity: s.Guess}
		if e, ok := g.kb.Get(s.Guess); ok {
			t.Image = e.Metadata.ImageURL
		}
		return t
	case policy.Learning:
		return Turn{Kind: KindLearnPrompt}
	default:
		return Turn{Kind: KindResolved, Mode: s.Outcome}
	}
}

// Answer records the player's answer to the pending question.
func (g *Game) Answer(ctx context.Context, trait string, a knowledge.Answer) (Turn, error) {
	_, span := g.observe.StartSpan(ctx, "game.Answer")
	defer span.End()

	s := g.session
	if s.State != policy.Asking {
		return g.Turn(), errors.Wrapf(ErrWrongState, "cannot answer while %s", s.State)
	}
	if !a.Valid() {
		return g.Turn(), errors.Wrapf(ErrInvalidAnswer, "%v", float64(a))
	}
	if trait != s.Pending {
		return g.Turn(), errors.Wrapf(ErrUnexpectedTrait, "got %q, asked %q", trait, s.Pending)
	}

	s.Responses.Set(trait, a)
	g.emit(Event{Type: EventAnswerRecorded, Trait: trait, Answer: a})
	g.observe.Log().Debug().Str("session", s.ID).Str("trait", trait).Str("answer", a.String()).Msg("answer recorded")

	g.evaluate()
	return g.Turn(), nil
}

// ConfirmGuess resolves the pending guess. A correct guess is persisted
// before the session is resolved; if that fails the session stays in the
// guessing state so the player can retry.
func (g *Game) ConfirmGuess(ctx context.Context, correct bool) (Turn, error) {
	ctx, span := g.observe.StartSpan(ctx, "game.ConfirmGuess")
	defer span.End()

	s := g.session
	if s.State != policy.Guessing {
		return g.Turn(), errors.Wrapf(ErrWrongState, "cannot confirm a guess while %s", s.State)
	}

	if !correct {
		g.emit(Event{Type: EventGuessDenied, Entity: s.Guess})
		g.observe.Log().Info().Str("session", s.ID).Str("entity", s.Guess).Msg("guess denied")
		s.transition(policy.Learning)
		g.emit(Event{Type: EventLearnPrompt})
		return g.Turn(), nil
	}

	e, err := g.kb.ConfirmGuess(ctx, s.Guess)
	if err != nil {
		g.persistFailed(err)
		return g.Turn(), err
	}
	s.Outcome = Won
	s.transition(policy.Resolved)
	g.emit(Event{Type: EventGuessConfirmed, Entity: e.Name, GuessCount: e.Metadata.GuessCount})
	g.observe.Log().Info().Str("session", s.ID).Str("entity", e.Name).Int("guess_count", e.Metadata.GuessCount).Msg("guessed correctly")
	metrics.GameOver(string(Won), s.Asked())
	return g.Turn(), nil
}

// Validate previews a learning submission without changing anything.
func (g *Game) Validate(name, trait, image string) teach.ValidationResult {
	return g.validator.Validate(teach.Submission{Name: name, Trait: trait, ImageURL: image}, g.kb, g.decider.Policy().OnCollision)
}

// SubmitLearning teaches the knowledge base the entity the player had in
// mind. Invalid or unsaved submissions leave the session in learning.
func (g *Game) SubmitLearning(ctx context.Context, name, trait, image string) (Turn, error) {
	ctx, span := g.observe.StartSpan(ctx, "game.SubmitLearning")
	defer span.End()

	s := g.session
	if s.State != policy.Learning {
		return g.Turn(), errors.Wrapf(ErrWrongState, "cannot learn while %s", s.State)
	}

	res := g.Validate(name, trait, image)
	if !res.Valid {
		return g.Turn(), res.Err()
	}

	e, err := g.kb.Learn(ctx, knowledge.LearnRequest{
		Name:      name,
		Trait:     trait,
		ImageURL:  image,
		Responses: s.Responses,
	}, g.decider.Policy().OnCollision)
	if err != nil {
		if !errors.Is(err, knowledge.ErrNameExists) {
			g.persistFailed(err)
		}
		return g.Turn(), err
	}

	s.Outcome = Taught
	s.transition(policy.Resolved)
	g.emit(Event{Type: EventLearned, Entity: e.Name, Trait: trait})
	g.observe.Log().Info().Str("session", s.ID).Str("name", e.Name).Int("traits", len(e.Traits)).Msg("learned new entity")
	metrics.GameOver(string(Taught), s.Asked())

	t := g.Turn()
	t.Warnings = res.Warnings
	return t, nil
}

// Restart discards the current session and starts a new one, reloading the
// knowledge base first if RequestReload was called.
func (g *Game) Restart(ctx context.Context) (Turn, error) {
	ctx, span := g.observe.StartSpan(ctx, "game.Restart")
	defer span.End()

	old := g.session
	if old.State != policy.Resolved && old.Asked() > 0 {
		metrics.GameOver("abandoned", old.Asked())
	}
	g.emit(Event{Type: EventSessionReset})

	if g.reload.Swap(false) {
		if err := g.kb.Reload(ctx); err != nil {
			g.reload.Store(true)
			g.observe.Log().Error().Err(err).Msg("failed to reload knowledge base")
			return g.Turn(), err
		}
		g.observe.Log().Info().Int("entities", g.kb.Len()).Msg("knowledge base reloaded")
	}

	g.start()
	return g.Turn(), nil
}

func (g *Game) start() {
	g.session = newSession()
	g.emit(Event{Type: EventSessionStart})
	g.observe.Log().Debug().Str("session", g.session.ID).Int("entities", g.kb.Len()).Msg("session started")
	g.evaluate()
}

// evaluate re-ranks the candidates and moves the session to the state the
// policy picks. All traits are recomputed from the store every time.
func (g *Game) evaluate() {
	s := g.session
	entities := g.kb.Entities()
	ranked := engine.Rank(entities, s.Responses)

	var topScore float64
	var leader string
	if top, err := engine.Top(ranked); err == nil {
		topScore = top.Score
		leader = top.Entity.Name
	}
	next, traitsLeft := engine.NextTrait(engine.AllTraits(entities), s.Responses.Keys())

	state := g.decider.Decide(policy.Snapshot{
		Asked:      s.Asked(),
		Candidates: len(ranked),
		TopScore:   topScore,
		TraitsLeft: traitsLeft,
	})
	s.transition(state)

	switch state {
	case policy.Asking:
		s.Pending = next
		g.emit(Event{Type: EventQuestionAsked, Index: s.Asked() + 1, Trait: next})
	case policy.Guessing:
		s.Pending = ""
		s.Guess = leader
		g.emit(Event{Type: EventGuessMade, Entity: leader, Score: topScore})
	case policy.Learning:
		s.Pending = ""
		g.emit(Event{Type: EventLearnPrompt})
	}
}

func (g *Game) persistFailed(err error) {
	g.emit(Event{Type: EventPersistFailed, Err: err})
	g.observe.Log().Error().Str("session", g.session.ID).Err(err).Msg("failed to persist knowledge base")
}

func (g *Game) emit(e Event) {
	e.SessionID = g.session.ID
	g.bus.Publish(e)
}
