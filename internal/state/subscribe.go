package state

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Subscription is the handle returned by Subscribe and Events
type Subscription struct {
	id      uint64
	store   *Store
	fn      func(Event)
	onClose func()
	once    sync.Once
}

// Unsubscribe stops delivery. It is safe to call more than once and from
// inside a callback.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.store.removeSub(sub.id)
		if sub.onClose != nil {
			sub.onClose()
		}
	})
}

// Subscribe registers fn to receive every committed event. Callbacks run
// synchronously on the mutating goroutine, after the state lock is released.
func (s *Store) Subscribe(fn func(Event)) *Subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	sub := &Subscription{id: s.nextSub, store: s, fn: fn}
	s.subs = append(s.subs, sub)
	return sub
}

// Events delivers committed events into a buffered channel. When the buffer
// is full the event is dropped and logged. Unsubscribe closes the channel.
func (s *Store) Events(buffer int) (<-chan Event, *Subscription) {
	ch := make(chan Event, buffer)
	var mu sync.Mutex
	closed := false

	sub := s.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
			s.logger.Warn("state event dropped, channel full",
				zap.String("event", fmt.Sprintf("%T", ev)),
				zap.Int("buffer", buffer))
		}
	})
	sub.onClose = func() {
		mu.Lock()
		defer mu.Unlock()
		closed = true
		close(ch)
	}
	return ch, sub
}

func (s *Store) removeSub(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = slices.DeleteFunc(s.subs, func(sub *Subscription) bool { return sub.id == id })
}

func (s *Store) notify(ev Event) {
	// snapshot so callbacks may subscribe or unsubscribe without deadlocking
	s.subMu.Lock()
	subs := append([]*Subscription(nil), s.subs...)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}
