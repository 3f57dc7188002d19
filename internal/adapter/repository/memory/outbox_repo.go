package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

// OutboxRepository keeps outbox events in memory, in creation order.
// It implements usecase.OutboxRepository.
type OutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
	byID   map[string]*domain.OutboxEvent
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		byID: make(map[string]*domain.OutboxEvent),
	}
}

// Create stores a new outbox event.
func (r *OutboxRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[event.ID]; exists {
		return fmt.Errorf("outbox event %s already exists", event.ID)
	}

	stored := copyEvent(event)
	r.events = append(r.events, stored)
	r.byID[stored.ID] = stored
	return nil
}

// GetUnpublished retrieves up to limit unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]*domain.OutboxEvent, 0, min(limit, len(r.events)))
	for _, e := range r.events {
		if len(events) >= limit {
			break
		}
		if !e.Published {
			events = append(events, copyEvent(e))
		}
	}
	return events, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("outbox event %s not found", id)
	}
	e.Published = true
	e.PublishedAt = &publishedAt
	return nil
}

// GetByAggregate retrieves events for a specific aggregate.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*domain.OutboxEvent
	skipped := 0
	for _, e := range r.events {
		if e.AggregateType != aggregateType || e.AggregateID != aggregateID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(events) >= limit {
			break
		}
		events = append(events, copyEvent(e))
	}
	return events, nil
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	for _, e := range r.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			delete(r.byID, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	clear(r.events[len(kept):])
	r.events = kept
	return nil
}

func copyEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	cp := *e
	cp.Payload = maps.Clone(e.Payload)
	if e.PublishedAt != nil {
		t := *e.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}
