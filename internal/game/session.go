package game

import (
	"time"

	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/policy"
	"github.com/google/uuid"
)

// Outcome is how a resolved session ended.
type Outcome string

const (
	Won    Outcome = "won"
	Taught Outcome = "taught"
)

// Session is the state of one round. It is discarded on restart.
type Session struct {
	ID        string
	Responses *knowledge.Responses
	State     policy.State
	// Pending is the trait the current question asks about.
	Pending string
	// Guess is the entity offered in the guessing state.
	Guess     string
	Outcome   Outcome
	StartedAt time.Time
	UpdatedAt time.Time
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Responses: knowledge.NewResponses(),
		State:     policy.Asking,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Asked returns the number of answered questions.
func (s Session) Asked() int {
	return s.Responses.Len()
}

func (s *Session) transition(state policy.State) {
	s.State = state
	s.UpdatedAt = time.Now()
}

func (s *Session) clone() Session {
	c := *s
	c.Responses = s.Responses.Clone()
	return c
}
