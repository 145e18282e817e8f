package events

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

type subscriber struct {
	ch   chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Memory is an in-process Bus.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	closed bool
}

// NewMemory returns a Memory bus whose subscribers buffer up to buffer
// events. Non-positive values select DefaultBuffer.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Memory{subs: make(map[string]map[*subscriber]struct{}), buffer: buffer}
}

func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for s := range m.subs[e.VideoID] {
		select {
		case s.ch <- e:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, videoID string) (<-chan Event, error) {
	s := &subscriber{ch: make(chan Event, m.buffer)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.close()
		return s.ch, nil
	}
	if m.subs[videoID] == nil {
		m.subs[videoID] = make(map[*subscriber]struct{})
	}
	m.subs[videoID][s] = struct{}{}
	m.mu.Unlock()

	context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if set := m.subs[videoID]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(m.subs, videoID)
			}
		}
		s.close()
	})
	return s.ch, nil
}

// Close closes every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, set := range m.subs {
		for s := range set {
			s.close()
		}
		delete(m.subs, id)
	}
	return nil
}
