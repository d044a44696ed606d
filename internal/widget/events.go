package widget

import (
	"sync"
	"time"

	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/search"
)

type EventType string

const (
	EventReveal             EventType = "reveal"
	EventRoundFinalized     EventType = "round_finalized"
	EventReset              EventType = "reset"
	EventResize             EventType = "resize"
	EventAutoSearchStarted  EventType = "auto_search_started"
	EventAutoSearchStep     EventType = "auto_search_step"
	EventAutoSearchFinished EventType = "auto_search_finished"
	EventClosed             EventType = "closed"
)

// Event is published to subscribers whenever the widget changes.
type Event struct {
	Type       EventType          `json:"type"`
	WidgetID   string             `json:"widget_id"`
	Generation uint64             `json:"generation"`
	BoxCount   int                `json:"box_count,omitempty"`
	Reveal     *game.RevealResult `json:"reveal,omitempty"`
	Step       *search.Event      `json:"step,omitempty"`
	Strategy   search.Kind        `json:"strategy,omitempty"`
	Stats      *StatsView         `json:"stats,omitempty"`
	Error      string             `json:"error,omitempty"`
	At         time.Time          `json:"at"`
}

// Broker fans events out to subscribers. Slow subscribers lose events rather
// than blocking the publisher.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that ends the
// subscription. The channel is closed when either is called or the broker closes.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, max(buffer, 1))
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers ev to every subscriber and returns how many received it.
func (b *Broker) Publish(ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
