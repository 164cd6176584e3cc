// Package repomanager wires repository implementations to a storage backend
// and owns the backend's lifecycle (migrations, transactions, shutdown).
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/eventhub/internal/server/repositories/events"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/users"
)

// Repositories vends the domain repositories.
type Repositories interface {
	Users() users.Repository
	Events() events.Repository
	Registrations() registrations.Repository
}

// RepositoryManager is a Repositories bound to a live backend.
type RepositoryManager interface {
	Repositories

	// RunMigrations brings the schema (tables, unique indexes) up to date.
	RunMigrations(ctx context.Context) error

	// RunInTx runs fn with repositories that share one transaction when the
	// backend supports it. fn's error rolls the transaction back.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error

	Close(ctx context.Context) error
}
