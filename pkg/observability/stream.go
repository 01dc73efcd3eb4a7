package observability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
)

// DefaultStreamBuffer is the per-subscriber channel capacity.
const DefaultStreamBuffer = 32

// Stream fans listener events out to subscribers, keyed by topic (a
// session ID, a sequence name). Slow subscribers lose events instead of
// blocking the publisher.
type Stream struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.Event]struct{}
	buffer      int
	logger      *slog.Logger
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithStreamBuffer sets the per-subscriber channel capacity.
func WithStreamBuffer(n int) StreamOption {
	return func(s *Stream) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithStreamLogger configures a logger for dropped events.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(s *Stream) {
		s.logger = logger
	}
}

// NewStream creates a Stream with no subscribers.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{
		subscribers: make(map[string]map[chan domain.Event]struct{}),
		buffer:      DefaultStreamBuffer,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe returns a channel of events published on topic and the function
// that ends the subscription and closes the channel.
func (s *Stream) Subscribe(topic string) (<-chan domain.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan domain.Event, s.buffer)
	if _, ok := s.subscribers[topic]; !ok {
		s.subscribers[topic] = make(map[chan domain.Event]struct{})
	}
	s.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if subs, ok := s.subscribers[topic]; ok {
				if _, live := subs[ch]; live {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(s.subscribers, topic)
				}
			}
		})
	}
}

// Publish delivers a copy of e to every subscriber of topic.
func (s *Stream) Publish(topic string, e domain.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers[topic] {
		select {
		case ch <- e:
		default:
			s.logger.Warn("Subscriber buffer full, dropping event", "topic", topic, "type", e.Type)
		}
	}
}

// Close ends every subscription on topic.
func (s *Stream) Close(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[topic] {
		close(ch)
	}
	delete(s.subscribers, topic)
}

// Subscribers returns the number of live subscriptions on topic.
func (s *Stream) Subscribers(topic string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers[topic])
}

// Hooks returns lifecycle hooks publishing every event on topic.
func (s *Stream) Hooks(topic string) domain.LifecycleHooks {
	return domain.HooksFunc(func(_ context.Context, e *domain.Event) {
		s.Publish(topic, *e)
	})
}
