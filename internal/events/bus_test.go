package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TopicAccounts)
	defer sub.Cancel()

	bus.Publish(TopicAccounts, "user-1")

	select {
	case ev := <-sub.C:
		if ev.Topic != TopicAccounts {
			t.Errorf("expected topic %q, got %q", TopicAccounts, ev.Topic)
		}
		if ev.UserID != "user-1" {
			t.Errorf("expected user ID user-1, got %q", ev.UserID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeFiltersTopics(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TopicTransfers)
	defer sub.Cancel()

	bus.Publish(TopicAccounts, "user-1")

	select {
	case ev := <-sub.C:
		t.Fatalf("expected no event, got %+v", ev)
	default:
	}
}

func TestSubscribeAllTopics(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Cancel()

	bus.Publish(TopicCurrencies, "user-1")

	select {
	case ev := <-sub.C:
		if ev.Topic != TopicCurrencies {
			t.Errorf("expected topic %q, got %q", TopicCurrencies, ev.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishConflatesToLatest(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TopicTransactions)
	defer sub.Cancel()

	// Nobody reads between publishes: only the latest must be pending.
	bus.Publish(TopicTransactions, "first")
	bus.Publish(TopicTransactions, "second")
	bus.Publish(TopicTransactions, "third")

	select {
	case ev := <-sub.C:
		if ev.UserID != "third" {
			t.Errorf("expected latest event (third), got %q", ev.UserID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-sub.C:
		t.Fatalf("expected channel drained, got %+v", ev)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TopicAccounts)

	sub.Cancel()
	sub.Cancel() // idempotent

	if _, ok := <-sub.C; ok {
		t.Error("expected closed channel after Cancel")
	}

	// Publishing after cancel must not panic or deliver.
	bus.Publish(TopicAccounts, "user-1")
}
