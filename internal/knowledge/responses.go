package knowledge

// Responses is the ordered set of answers collected in a session. Iteration
// order is the order in which the traits were asked.
type Responses struct {
	order  []string
	values map[string]Answer
}

// NewResponses returns an empty answer set.
func NewResponses() *Responses {
	return &Responses{values: make(map[string]Answer)}
}

// Set records an answer. Re-answering a trait keeps its first position.
func (r *Responses) Set(trait string, a Answer) {
	if _, ok := r.values[trait]; !ok {
		r.order = append(r.order, trait)
	}
	r.values[trait] = a
}

// Get returns the answer recorded for trait.
func (r *Responses) Get(trait string) (Answer, bool) {
	if r == nil {
		return 0, false
	}
	a, ok := r.values[trait]
	return a, ok
}

// Has reports whether trait has been answered.
func (r *Responses) Has(trait string) bool {
	_, ok := r.Get(trait)
	return ok
}

// Len returns the number of answered traits.
func (r *Responses) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Keys returns the answered traits in question order.
func (r *Responses) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// Each calls fn for every answer in question order.
func (r *Responses) Each(fn func(trait string, a Answer)) {
	if r == nil {
		return
	}
	for _, t := range r.order {
		fn(t, r.values[t])
	}
}

// Clone returns an independent copy.
func (r *Responses) Clone() *Responses {
	c := NewResponses()
	r.Each(c.Set)
	return c
}
