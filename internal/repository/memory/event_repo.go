// Package memory provides in-process repositories for development and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/domain"
)

type EventRepository struct {
	mu      sync.RWMutex
	byID    map[string]*eventRow
	nextSeq int64
}

// eventRow pairs a stored event with its insertion sequence, used to keep the date sort stable.
type eventRow struct {
	seq   int64
	event domain.Event
}

func NewEventRepository() *EventRepository {
	return &EventRepository{byID: make(map[string]*eventRow)}
}

func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.NewString()
	r.nextSeq++
	r.byID[e.ID] = &eventRow{seq: r.nextSeq, event: *e}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e := row.event
	return &e, nil
}

func (r *EventRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	rows := make([]eventRow, 0, len(r.byID))
	for _, row := range r.byID {
		rows = append(rows, *row)
	}
	r.mu.RUnlock()

	slices.SortFunc(rows, func(a, b eventRow) int {
		if c := a.event.Date.Compare(b.event.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	events := make([]*domain.Event, len(rows))
	for i := range rows {
		events[i] = &rows[i].event
	}
	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, patch domain.EventPatch, updatedAt time.Time) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !patch.IsEmpty() {
		patch.Apply(&row.event)
		row.event.UpdatedAt = updatedAt
	}
	e := row.event
	return &e, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
