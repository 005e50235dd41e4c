package events

import (
	"context"
	"sync"

	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
)

// Hub fans movement events out to in-process subscribers. Slow subscribers
// drop events rather than block the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan *model.MovementEvent
	nextID uint64
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[uint64]chan *model.MovementEvent),
		buffer: buffer,
	}
}

func (h *Hub) Publish(_ context.Context, evt *model.MovementEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			logger.Warn("movement subscriber lagging, dropping event", "subscriber", id, "event", evt.ID)
		}
	}
	return nil
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan *model.MovementEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan *model.MovementEvent, h.buffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publisher is satisfied by every event sink.
type Publisher interface {
	Publish(ctx context.Context, evt *model.MovementEvent) error
}
