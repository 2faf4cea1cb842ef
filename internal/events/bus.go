// Package events provides an in-process publish/subscribe bus over entity
// topics. A mutating store operation publishes the topic of every entity it
// touched; subscribers re-query on notification. Subscriptions hold only the
// latest notification per topic set (no buffering beyond "latest value") and
// are cancellable.
package events

import (
	"sync"
	"time"
)

// Topic identifies an entity collection whose rows changed.
type Topic string

const (
	TopicAccounts     Topic = "accounts"
	TopicCategories   Topic = "categories"
	TopicCurrencies   Topic = "currencies"
	TopicTransactions Topic = "transactions"
	TopicTransfers    Topic = "transfers"
	TopicPlanned      Topic = "planned"
	TopicSettings     Topic = "settings"
)

// Event is a change notification. It carries no payload: subscribers are
// expected to re-run their query against the store.
type Event struct {
	Topic  Topic     `json:"topic"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// Bus fans change notifications out to active subscriptions.
// The zero value is not usable; create one with NewBus.
type Bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscription is a live view over one or more topics. Receive from C; newer
// notifications replace an unconsumed one rather than queueing behind it.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	topics map[Topic]struct{}
	bus    *Bus
	once   sync.Once
}

// Subscribe registers a subscription for the given topics. With no topics it
// receives every event. The caller must Cancel the subscription when done.
func (b *Bus) Subscribe(topics ...Topic) *Subscription {
	ch := make(chan Event, 1)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Cancel removes the subscription from the bus and closes its channel.
// Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

func (s *Subscription) wants(t Topic) bool {
	if s.topics == nil {
		return true
	}
	_, ok := s.topics[t]
	return ok
}

// Publish notifies every matching subscription that rows under the topic
// changed. Publish never blocks: a slow subscriber's pending notification is
// replaced with the newer one.
func (b *Bus) Publish(topic Topic, userID string) {
	if b == nil {
		return
	}
	ev := Event{Topic: topic, UserID: userID, At: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Drop the stale pending event, then try once more. If the
			// subscriber raced us and drained the channel, this send wins.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}
