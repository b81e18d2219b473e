// Package knowledge holds the guessing engine's knowledge base: named
// entities described by sparse trait maps, the answers collected during a
// session, and the only mutation paths the game is allowed to use.
package knowledge

// Entity is a guessable character. Traits is sparse: a missing key means the
// entity's value for that trait is unknown.
type Entity struct {
	Name     string
	Traits   map[string]float64
	Metadata Metadata
}

// Metadata carries the non-trait attributes of an entity.
type Metadata struct {
	ImageURL   string
	GuessCount int
}

// Trait returns the stored value for key and whether one exists.
func (e Entity) Trait(key string) (float64, bool) {
	v, ok := e.Traits[key]
	return v, ok
}

// Clone returns a deep copy of e.
func (e Entity) Clone() Entity {
	traits := make(map[string]float64, len(e.Traits))
	for k, v := range e.Traits {
		traits[k] = v
	}
	e.Traits = traits
	return e
}

// DefaultEntities is the starter knowledge base used when no prior state
// exists.
func DefaultEntities() []Entity {
	return []Entity{
		{
			Name:     "Spider-Man",
			Traits:   map[string]float64{"superhero": 1, "real": 0, "red": 1},
			Metadata: Metadata{ImageURL: "https://tinyurl.com/spidey-img"},
		},
		{
			Name:     "Albert Einstein",
			Traits:   map[string]float64{"superhero": 0, "real": 1, "red": 0},
			Metadata: Metadata{ImageURL: "https://tinyurl.com/einstein-img"},
		},
	}
}
