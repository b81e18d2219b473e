// Package engine scores entities against a session's answers and picks the
// next trait to ask about.
package engine

import (
	"math"
	"sort"

	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// Unknown is the value assumed for a trait an entity has no data for.
const Unknown = 0.5

// Candidate is an entity with its match score for the current answers.
type Candidate struct {
	Entity knowledge.Entity
	Score  float64
}

// traitValue is the only place the unknown default is applied; it is never
// written back to the entity.
func traitValue(e knowledge.Entity, trait string) float64 {
	if v, ok := e.Traits[trait]; ok {
		return v
	}
	return Unknown
}

// Score sums 1-|answer-value| over every answered trait. Scores are only
// comparable between entities scored against the same responses.
func Score(e knowledge.Entity, r *knowledge.Responses) float64 {
	var total float64
	r.Each(func(trait string, a knowledge.Answer) {
		total += 1 - math.Abs(float64(a)-traitValue(e, trait))
	})
	return total
}

// Rank scores every entity and orders them best first. Equal scores keep
// the order of entities.
func Rank(entities []knowledge.Entity, r *knowledge.Responses) []Candidate {
	ranked := make([]Candidate, len(entities))
	for i, e := range entities {
		ranked[i] = Candidate{Entity: e, Score: Score(e, r)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns the best candidate of a ranking.
func Top(ranked []Candidate) (Candidate, error) {
	if len(ranked) == 0 {
		return Candidate{}, knowledge.ErrEmptyKnowledgeBase
	}
	return ranked[0], nil
}
