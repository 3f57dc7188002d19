package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

func newEvent(id, customerID string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   customerID,
		AggregateType: domain.AggregateTypeLedger,
		EventType:     domain.EventTypeCreditApplied,
		Payload:       map[string]any{"customer_id": customerID},
		CreatedAt:     time.Now(),
	}
}

func TestOutboxRepository_CreateAndGetUnpublished(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, newEvent(fmt.Sprintf("evt-%d", i), "cust-1")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	events, err := repo.GetUnpublished(ctx, 3)
	if err != nil {
		t.Fatalf("GetUnpublished failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.ID != fmt.Sprintf("evt-%d", i) {
			t.Fatalf("expected events in creation order, got %s at %d", e.ID, i)
		}
	}

	if err := repo.Create(ctx, newEvent("evt-0", "cust-1")); err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestOutboxRepository_MarkPublished(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()
	_ = repo.Create(ctx, newEvent("evt-1", "cust-1"))
	_ = repo.Create(ctx, newEvent("evt-2", "cust-1"))

	if err := repo.MarkPublished(ctx, "evt-1", time.Now()); err != nil {
		t.Fatalf("MarkPublished failed: %v", err)
	}
	if err := repo.MarkPublished(ctx, "missing", time.Now()); err == nil {
		t.Fatal("expected error for unknown event")
	}

	events, _ := repo.GetUnpublished(ctx, 10)
	if len(events) != 1 || events[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 unpublished, got %v", events)
	}
}

func TestOutboxRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()
	_ = repo.Create(ctx, newEvent("evt-1", "cust-1"))

	events, _ := repo.GetUnpublished(ctx, 1)
	events[0].Published = true
	events[0].Payload["customer_id"] = "tampered"

	again, _ := repo.GetUnpublished(ctx, 1)
	if len(again) != 1 {
		t.Fatal("expected caller mutation not to affect stored event")
	}
	if again[0].Payload["customer_id"] != "cust-1" {
		t.Fatalf("expected payload untouched, got %v", again[0].Payload)
	}
}

func TestOutboxRepository_GetByAggregate(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()
	_ = repo.Create(ctx, newEvent("a-1", "alice"))
	_ = repo.Create(ctx, newEvent("b-1", "bob"))
	_ = repo.Create(ctx, newEvent("a-2", "alice"))
	_ = repo.Create(ctx, newEvent("a-3", "alice"))

	events, err := repo.GetByAggregate(ctx, domain.AggregateTypeLedger, "alice", 2, 1)
	if err != nil {
		t.Fatalf("GetByAggregate failed: %v", err)
	}
	if len(events) != 2 || events[0].ID != "a-2" || events[1].ID != "a-3" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestOutboxRepository_DeletePublished(t *testing.T) {
	ctx := context.Background()
	repo := NewOutboxRepository()
	_ = repo.Create(ctx, newEvent("old", "cust-1"))
	_ = repo.Create(ctx, newEvent("recent", "cust-1"))
	_ = repo.Create(ctx, newEvent("pending", "cust-1"))

	now := time.Now()
	_ = repo.MarkPublished(ctx, "old", now.Add(-2*time.Hour))
	_ = repo.MarkPublished(ctx, "recent", now)

	if err := repo.DeletePublished(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatalf("DeletePublished failed: %v", err)
	}

	events, _ := repo.GetByAggregate(ctx, domain.AggregateTypeLedger, "cust-1", 10, 0)
	if len(events) != 2 || events[0].ID != "recent" || events[1].ID != "pending" {
		t.Fatalf("expected recent and pending to remain, got %v", events)
	}
	if err := repo.MarkPublished(ctx, "old", now); err == nil {
		t.Fatal("expected deleted event to be gone")
	}
}

func TestOutboxRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewOutboxRepository()
	if err := repo.Create(ctx, newEvent("evt-1", "cust-1")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestULIDGenerator_Monotonic(t *testing.T) {
	gen := NewULIDGenerator()

	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		if len(next) != 26 {
			t.Fatalf("expected 26-char ULID, got %q", next)
		}
		if next <= prev {
			t.Fatalf("expected increasing ids, got %s after %s", next, prev)
		}
		prev = next
	}
}
