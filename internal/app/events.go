package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
)

// RecentOutcomes is how many dispatch outcomes the hub keeps in memory.
const RecentOutcomes = 20

// EventType tags hub events.
type EventType string

const (
	EventMode       EventType = "mode"
	EventLabel      EventType = "label"
	EventGesture    EventType = "gesture"
	EventTranscript EventType = "transcript"
	EventOutcome    EventType = "outcome"
	EventError      EventType = "error"
)

// Event is one observation published by a running session.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	At         time.Time         `json:"at"`
	Mode       Mode              `json:"mode,omitempty"`
	Label      gesture.Label     `json:"label,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	Outcome    *dispatch.Outcome `json:"outcome,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Hub fans events out to subscribers and remembers the latest outcomes.
// Slow subscribers miss events rather than block the sessions.
type Hub struct {
	mu        sync.RWMutex
	subs      map[int]chan Event
	nextSub   int
	recent    []dispatch.Outcome
	lastLabel gesture.Label
	now       func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:      make(map[int]chan Event),
		lastLabel: gesture.None,
		now:       time.Now,
	}
}

// Publish stamps ev with an id and time and delivers it.
func (h *Hub) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch ev.Type {
	case EventLabel:
		h.lastLabel = ev.Label
	case EventOutcome:
		if ev.Outcome != nil {
			h.recent = append(h.recent, *ev.Outcome)
			if len(h.recent) > RecentOutcomes {
				h.recent = h.recent[len(h.recent)-RecentOutcomes:]
			}
		}
	}

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of future events and a function that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Recent returns the kept outcomes, oldest first.
func (h *Hub) Recent() []dispatch.Outcome {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]dispatch.Outcome(nil), h.recent...)
}

// LastLabel returns the most recent per-frame label.
func (h *Hub) LastLabel() gesture.Label {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastLabel
}

// Last returns the most recent outcome.
func (h *Hub) Last() (dispatch.Outcome, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.recent) == 0 {
		return dispatch.Outcome{}, false
	}
	return h.recent[len(h.recent)-1], true
}
