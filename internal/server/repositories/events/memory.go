package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
)

type InMemoryRepository struct {
	mu     sync.RWMutex
	events map[string]*models.Event
	now    func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{events: make(map[string]*models.Event), now: time.Now}
}

func clone(e *models.Event) *models.Event {
	c := *e
	if e.PaymentAmount != nil {
		a := *e.PaymentAmount
		c.PaymentAmount = &a
	}
	return &c
}

func (r *InMemoryRepository) collect(match func(e *models.Event) bool, less func(a, b *models.Event) bool) []*models.Event {
	result := make([]*models.Event, 0)
	for _, e := range r.events {
		if match(e) {
			result = append(result, clone(e))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

func all(*models.Event) bool { return true }

func (r *InMemoryRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.events[event.ID] = clone(event)
	return event, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(e), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(all, func(a, b *models.Event) bool { return a.Date.After(b.Date) }), nil
}

func (r *InMemoryRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return r.collect(
		func(e *models.Event) bool { _, ok := wanted[e.ID]; return ok },
		func(a, b *models.Event) bool { return a.Date.Before(b.Date) },
	), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.events[event.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	updated := clone(event)
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now()
	r.events[event.ID] = updated
	return clone(updated), nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *InMemoryRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(
		func(e *models.Event) bool { return e.RegistrationDeadline.Before(now) },
		func(a, b *models.Event) bool { return a.RegistrationDeadline.Before(b.RegistrationDeadline) },
	), nil
}

func (r *InMemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.events)), nil
}

func (r *InMemoryRepository) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, e := range r.events {
		if !e.Date.Before(now) {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) Recent(ctx context.Context, limit int) ([]*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.collect(all, func(a, b *models.Event) bool { return a.CreatedAt.After(b.CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
