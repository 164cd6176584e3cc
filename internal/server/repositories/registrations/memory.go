package registrations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/google/uuid"
)

type ledgerKey struct {
	eventID string
	value   string
}

// InMemoryRepository mirrors the two unique indexes of the database stores
// with two key sets guarded by one mutex. Check and insert happen under the
// same lock.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*models.Registration
	byUSN   map[ledgerKey]string
	byEmail map[ledgerKey]string
	now     func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		entries: make(map[string]*models.Registration),
		byUSN:   make(map[ledgerKey]string),
		byEmail: make(map[ledgerKey]string),
		now:     time.Now,
	}
}

func clone(reg *models.Registration) *models.Registration {
	c := *reg
	if reg.TransactionID != nil {
		tx := *reg.TransactionID
		c.TransactionID = &tx
	}
	return &c
}

func (r *InMemoryRepository) Create(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	usnKey := ledgerKey{eventID: reg.EventID, value: reg.USN}
	emailKey := ledgerKey{eventID: reg.EventID, value: reg.Email}
	if _, taken := r.byUSN[usnKey]; taken {
		return nil, common.ErrAlreadyRegistered
	}
	if _, taken := r.byEmail[emailKey]; taken {
		return nil, common.ErrAlreadyRegistered
	}

	reg.ID = uuid.NewString()
	reg.RegisteredAt = r.now()
	r.entries[reg.ID] = clone(reg)
	r.byUSN[usnKey] = reg.ID
	r.byEmail[emailKey] = reg.ID

	return reg, nil
}

func (r *InMemoryRepository) Exists(ctx context.Context, eventID, usn, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, byUSN := r.byUSN[ledgerKey{eventID: eventID, value: usn}]
	_, byEmail := r.byEmail[ledgerKey{eventID: eventID, value: email}]
	return byUSN || byEmail, nil
}

func (r *InMemoryRepository) ExistsByUSN(ctx context.Context, eventID, usn string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUSN[ledgerKey{eventID: eventID, value: usn}]
	return ok, nil
}

func (r *InMemoryRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Registration, 0)
	for _, reg := range r.entries {
		if reg.EventID == eventID {
			result = append(result, clone(reg))
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].RegisteredAt.After(result[j].RegisteredAt) })
	return result, nil
}

func (r *InMemoryRepository) EventIDsByUSN(ctx context.Context, usn string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0)
	for key := range r.byUSN {
		if key.value == usn {
			ids = append(ids, key.eventID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *InMemoryRepository) CountByEvents(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = struct{}{}
	}
	counts := make(map[string]int64)
	for _, reg := range r.entries {
		if _, ok := wanted[reg.EventID]; ok {
			counts[reg.EventID]++
		}
	}
	return counts, nil
}

func (r *InMemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.entries)), nil
}

func (r *InMemoryRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, reg := range r.entries {
		if reg.EventID != eventID {
			continue
		}
		delete(r.byUSN, ledgerKey{eventID: eventID, value: reg.USN})
		delete(r.byEmail, ledgerKey{eventID: eventID, value: reg.Email})
		delete(r.entries, id)
	}
	return nil
}
