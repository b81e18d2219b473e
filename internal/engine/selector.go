package engine

import (
	"sort"

	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// AllTraits returns the union of every entity's trait keys in lexical order,
// which is also the order questions are asked in.
func AllTraits(entities []knowledge.Entity) []string {
	seen := make(map[string]struct{})
	var traits []string
	for _, e := range entities {
		for t := range e.Traits {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			traits = append(traits, t)
		}
	}
	sort.Strings(traits)
	return traits
}

// Remaining returns the traits of all that are not in asked, keeping the
// order of all.
func Remaining(all, asked []string) []string {
	done := make(map[string]struct{}, len(asked))
	for _, t := range asked {
		done[t] = struct{}{}
	}
	var out []string
	for _, t := range all {
		if _, ok := done[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// NextTrait returns the first unasked trait. ok is false once every trait
// has been asked.
func NextTrait(all, asked []string) (string, bool) {
	remaining := Remaining(all, asked)
	if len(remaining) == 0 {
		return "", false
	}
	return remaining[0], true
}
