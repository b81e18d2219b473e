package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Persistence loads and saves the whole knowledge base. Load returns
// DefaultEntities when nothing has been saved yet; Save overwrites all prior
// state.
type Persistence interface {
	Load(ctx context.Context) ([]Entity, error)
	Save(ctx context.Context, entities []Entity) error
}

// CollisionPolicy decides what Learn does when the new name already exists.
type CollisionPolicy string

const (
	Overwrite CollisionPolicy = "overwrite"
	Reject    CollisionPolicy = "reject"
)

// ParseCollisionPolicy accepts "overwrite" or "reject" (case-insensitive).
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case Overwrite, "":
		return Overwrite, nil
	case Reject:
		return Reject, nil
	}
	return "", errors.Wrapf(ErrInvalidCollision, "%q", s)
}

// Standing is one leaderboard row.
type Standing struct {
	Name       string
	GuessCount int
}

// LearnRequest describes a new entity taught by the user.
type LearnRequest struct {
	Name      string
	Trait     string
	ImageURL  string
	Responses *Responses
}

// Base is the in-memory knowledge base. Entities iterate in insertion
// order. Every mutation is applied to a copy, saved, and only then swapped
// in, so a failed save leaves the base untouched.
type Base struct {
	mu      sync.Mutex
	persist Persistence
	state   *snapshot
}

type snapshot struct {
	order  []string
	byName map[string]Entity
}

func newSnapshot(entities []Entity) *snapshot {
	s := &snapshot{byName: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		s.put(e.Clone())
	}
	return s
}

func (s *snapshot) put(e Entity) {
	if _, ok := s.byName[e.Name]; !ok {
		s.order = append(s.order, e.Name)
	}
	s.byName[e.Name] = e
}

func (s *snapshot) list() []Entity {
	out := make([]Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name].Clone())
	}
	return out
}

func (s *snapshot) clone() *snapshot {
	return newSnapshot(s.list())
}

// New returns a base holding entities. A nil Persistence keeps the base in
// memory only.
func New(p Persistence, entities []Entity) *Base {
	return &Base{persist: p, state: newSnapshot(entities)}
}

// Open loads a base from p.
func Open(ctx context.Context, p Persistence) (*Base, error) {
	b := &Base{persist: p, state: newSnapshot(nil)}
	if err := b.Reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload replaces the in-memory state with whatever p currently holds.
func (b *Base) Reload(ctx context.Context) error {
	if b.persist == nil {
		return nil
	}
	entities, err := b.persist.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load knowledge base")
	}
	b.mu.Lock()
	b.state = newSnapshot(entities)
	b.mu.Unlock()
	return nil
}

// Entities returns copies of all entities in store order.
func (b *Base) Entities() []Entity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.list()
}

// Len returns the number of entities.
func (b *Base) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.state.order)
}

// Get returns a copy of the named entity.
func (b *Base) Get(name string) (Entity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.state.byName[name]
	if !ok {
		return Entity{}, false
	}
	return e.Clone(), true
}

// Has reports whether name is a known entity.
func (b *Base) Has(name string) bool {
	_, ok := b.Get(name)
	return ok
}

// HasTrait reports whether any entity carries trait.
func (b *Base) HasTrait(trait string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.state.byName {
		if _, ok := e.Traits[trait]; ok {
			return true
		}
	}
	return false
}

// mutate applies fn to a copy of the current state, persists the copy and
// swaps it in.
func (b *Base) mutate(ctx context.Context, fn func(s *snapshot) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	if b.persist != nil {
		if err := b.persist.Save(ctx, next.list()); err != nil {
			return errors.Wrap(err, "save knowledge base")
		}
	}
	b.state = next
	return nil
}

// ConfirmGuess records a correct guess for name and persists the base.
func (b *Base) ConfirmGuess(ctx context.Context, name string) (Entity, error) {
	var out Entity
	err := b.mutate(ctx, func(s *snapshot) error {
		e, ok := s.byName[name]
		if !ok {
			return errors.Wrapf(ErrUnknownEntity, "%q", name)
		}
		e.Metadata.GuessCount++
		s.byName[name] = e
		out = e.Clone()
		return nil
	})
	return out, err
}

// Learn adds a new entity built from the session's answers plus one new
// trait set to 1.0, then marks that trait 0.0 on every other entity that
// does not have it yet. The whole change is persisted before it becomes
// visible.
func (b *Base) Learn(ctx context.Context, req LearnRequest, onCollision CollisionPolicy) (Entity, error) {
	name := strings.TrimSpace(req.Name)
	trait := strings.TrimSpace(req.Trait)
	if name == "" {
		return Entity{}, ErrEmptyName
	}
	if trait == "" {
		return Entity{}, ErrEmptyTrait
	}

	traits := make(map[string]float64, req.Responses.Len()+1)
	req.Responses.Each(func(t string, a Answer) {
		traits[t] = float64(a)
	})
	traits[trait] = 1.0

	learned := Entity{
		Name:     name,
		Traits:   traits,
		Metadata: Metadata{ImageURL: strings.TrimSpace(req.ImageURL)},
	}

	err := b.mutate(ctx, func(s *snapshot) error {
		if _, exists := s.byName[name]; exists && onCollision == Reject {
			return errors.Wrapf(ErrNameExists, "%q", name)
		}
		s.put(learned.Clone())
		for _, other := range s.order {
			if other == name {
				continue
			}
			e := s.byName[other]
			if _, ok := e.Traits[trait]; !ok {
				e.Traits[trait] = 0.0
			}
		}
		return nil
	})
	if err != nil {
		return Entity{}, err
	}
	return learned, nil
}

// Merge upserts entities by name, keeping the position of existing ones,
// and persists the result.
func (b *Base) Merge(ctx context.Context, entities []Entity) error {
	return b.mutate(ctx, func(s *snapshot) error {
		for _, e := range entities {
			if strings.TrimSpace(e.Name) == "" {
				return ErrEmptyName
			}
			if e.Traits == nil {
				e.Traits = map[string]float64{}
			}
			s.put(e.Clone())
		}
		return nil
	})
}

// Save writes the current state through the persistence layer.
func (b *Base) Save(ctx context.Context) error {
	return b.mutate(ctx, func(*snapshot) error { return nil })
}

// TopN returns up to n entities ordered by guess count, highest first. Ties
// keep store order.
func (b *Base) TopN(n int) []Standing {
	entities := b.Entities()
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Metadata.GuessCount > entities[j].Metadata.GuessCount
	})
	if n >= 0 && len(entities) > n {
		entities = entities[:n]
	}
	out := make([]Standing, len(entities))
	for i, e := range entities {
		out[i] = Standing{Name: e.Name, GuessCount: e.Metadata.GuessCount}
	}
	return out
}
