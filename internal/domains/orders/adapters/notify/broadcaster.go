package notify

import (
	"context"
	"sync"

	"github.com/Apurer/foodcourt-server/internal/domains/orders/domain"
	"github.com/Apurer/foodcourt-server/internal/domains/orders/ports"
)

var (
	_ ports.Notifier   = (*Broadcaster)(nil)
	_ ports.StatusFeed = (*Broadcaster)(nil)
)

const defaultBuffer = 16

// Broadcaster fans status changes out to in-process subscribers. A
// subscriber whose buffer is full misses the event; pushed events are hints
// and readers re-read the repository.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	buffer int
}

type subscriber struct {
	filter ports.StatusFilter
	ch     chan domain.StatusChanged
}

// NewBroadcaster builds a broadcaster with a per-subscriber buffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broadcaster{subs: map[uint64]*subscriber{}, buffer: buffer}
}

func (b *Broadcaster) Publish(_ context.Context, event domain.StatusChanged) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.filter.Matches(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(filter ports.StatusFilter) (<-chan domain.StatusChanged, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &subscriber{filter: filter, ch: make(chan domain.StatusChanged, b.buffer)}
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
