package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/eventhub/internal/server/repositories/events"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory. It is meant
// for tests and local development.
type InMemoryRepositoryManager struct {
	txMu          sync.Mutex
	users         *users.InMemoryRepository
	events        *events.InMemoryRepository
	registrations *registrations.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:         users.NewInMemoryRepository(),
		events:        events.NewInMemoryRepository(),
		registrations: registrations.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *InMemoryRepositoryManager) Events() events.Repository { return m.events }

func (m *InMemoryRepositoryManager) Registrations() registrations.Repository { return m.registrations }

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

// RunInTx serializes multi-repository units of work. There is no rollback.
func (m *InMemoryRepositoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *InMemoryRepositoryManager) Close(ctx context.Context) error { return nil }
