package input

import (
	"sync"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/ports"
)

// PushKeyboard is an in-process ports.KeyboardSource.
// Presses are delivered synchronously, in subscription order, on the
// goroutine that calls Press.
type PushKeyboard struct {
	mu       sync.Mutex
	next     uint64
	handlers map[uint64]ports.KeyHandler
	order    []uint64
}

// NewPushKeyboard creates a keyboard source with no subscribers.
func NewPushKeyboard() *PushKeyboard {
	return &PushKeyboard{handlers: make(map[uint64]ports.KeyHandler)}
}

// Subscribe registers handler and returns the handle that releases it.
func (k *PushKeyboard) Subscribe(handler ports.KeyHandler) (ports.Subscription, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.next++
	id := k.next
	k.handlers[id] = handler
	k.order = append(k.order, id)
	return &pushSubscription{keyboard: k, id: id}, nil
}

// Press delivers one key event to every current subscriber.
func (k *PushKeyboard) Press(ev domain.KeyEvent) {
	k.mu.Lock()
	handlers := make([]ports.KeyHandler, 0, len(k.order))
	for _, id := range k.order {
		handlers = append(handlers, k.handlers[id])
	}
	k.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (k *PushKeyboard) Subscribers() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.handlers)
}

func (k *PushKeyboard) remove(id uint64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.handlers[id]; !ok {
		return false
	}
	delete(k.handlers, id)
	for i, v := range k.order {
		if v == id {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
	return true
}

type pushSubscription struct {
	keyboard *PushKeyboard
	id       uint64
}

func (s *pushSubscription) Close() error {
	s.keyboard.remove(s.id)
	return nil
}
