package policy

import (
	"fmt"

	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// Policy holds the thresholds that decide when to stop asking and guess.
type Policy struct {
	// MaxQuestions forces a guess once this many questions were answered.
	MaxQuestions int `json:"max_questions"`
	// MinQuestions is the earliest point a confident guess is allowed.
	MinQuestions int `json:"min_questions"`
	// Confidence is the average per-question agreement the top candidate
	// must exceed to guess early.
	Confidence  float64                   `json:"confidence"`
	OnCollision knowledge.CollisionPolicy `json:"on_collision"`
}

// DefaultPolicy guesses after five questions, or after three if the leader
// agrees with more than 85% of the answers on average.
var DefaultPolicy = Policy{
	MaxQuestions: 5,
	MinQuestions: 3,
	Confidence:   0.85,
	OnCollision:  knowledge.Overwrite,
}

// Violation describes an invalid policy setting.
type Violation struct {
	Rule    string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// Check validates the thresholds.
func (p Policy) Check() *Violation {
	if p.MinQuestions < 1 {
		return &Violation{Rule: "min_questions", Message: "must be at least 1"}
	}
	if p.MaxQuestions < p.MinQuestions {
		return &Violation{Rule: "max_questions", Message: "must not be below min_questions"}
	}
	if p.Confidence <= 0 || p.Confidence > 1 {
		return &Violation{Rule: "confidence", Message: "must be in (0, 1]"}
	}
	if p.OnCollision != knowledge.Overwrite && p.OnCollision != knowledge.Reject {
		return &Violation{Rule: "on_collision", Message: fmt.Sprintf("unknown policy %q", p.OnCollision)}
	}
	return nil
}

// State is a game session state.
type State string

const (
	Asking   State = "asking"
	Guessing State = "guessing"
	Learning State = "learning"
	Resolved State = "resolved"
)

// Snapshot is what the decision needs to know about a session.
type Snapshot struct {
	Asked      int
	Candidates int
	TopScore   float64
	TraitsLeft bool
}

// Decider applies a policy to session snapshots.
type Decider struct {
	policy Policy
}

func New(p Policy) *Decider {
	return &Decider{policy: p}
}

// Policy returns the decider's thresholds.
func (d *Decider) Policy() Policy {
	return d.policy
}

// ShouldGuess reports whether the thresholds allow a guess, ignoring
// whether there is anyone to guess.
func (d *Decider) ShouldGuess(asked int, topScore float64) bool {
	if asked >= d.policy.MaxQuestions {
		return true
	}
	return asked >= d.policy.MinQuestions && topScore > float64(asked)*d.policy.Confidence
}

// Decide picks the next state after an answer or at session start. With no
// candidates the session goes straight to learning.
func (d *Decider) Decide(s Snapshot) State {
	if s.Candidates == 0 {
		return Learning
	}
	if d.ShouldGuess(s.Asked, s.TopScore) {
		return Guessing
	}
	if !s.TraitsLeft {
		return Learning
	}
	return Asking
}
