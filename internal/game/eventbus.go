package game

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// EventType names something that happened in a game.
type EventType string

const (
	EventSessionStart   EventType = "session_start"
	EventQuestionAsked  EventType = "question_asked"
	EventAnswerRecorded EventType = "answer_recorded"
	EventGuessMade      EventType = "guess_made"
	EventGuessConfirmed EventType = "guess_confirmed"
	EventGuessDenied    EventType = "guess_denied"
	EventLearnPrompt    EventType = "learn_prompt"
	EventLearned        EventType = "learned"
	EventSessionReset   EventType = "session_reset"
	EventPersistFailed  EventType = "persist_failed"
)

// Event is a game event. Only the fields relevant to Type are set.
type Event struct {
	Type      EventType
	SessionID string
	At        time.Time

	Index      int
	Trait      string
	Answer     knowledge.Answer
	Entity     string
	Score      float64
	GuessCount int
	Err        error
}

// EventHandler receives published events on the publisher's goroutine.
type EventHandler func(Event)

type subscription struct {
	id      uint64
	types   map[EventType]bool
	handler EventHandler
}

func (s subscription) wants(t EventType) bool {
	return len(s.types) == 0 || s.types[t]
}

// EventBus fans game events out to presentation layers so they can follow
// a game without polling.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers handler for the given event types, or for every event
// when none are given. The returned func removes the subscription.
func (eb *EventBus) Subscribe(handler EventHandler, types ...EventType) (cancel func()) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	eb.mu.Lock()
	eb.nextID++
	sub.id = eb.nextID
	eb.subs = append(eb.subs, sub)
	eb.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { eb.remove(sub.id) })
	}
}

func (eb *EventBus) remove(id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, s := range eb.subs {
		if s.id == id {
			eb.subs = append(eb.subs[:i:i], eb.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every interested subscriber in subscription order.
// Handlers run without the bus lock held, so they may publish or subscribe.
func (eb *EventBus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	eb.mu.RLock()
	subs := make([]EventHandler, 0, len(eb.subs))
	for _, s := range eb.subs {
		if s.wants(e.Type) {
			subs = append(subs, s.handler)
		}
	}
	eb.mu.RUnlock()

	for _, h := range subs {
		h(e)
	}
}

// Len returns the number of live subscriptions.
func (eb *EventBus) Len() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}
