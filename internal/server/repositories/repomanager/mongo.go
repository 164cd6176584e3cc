package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eventhub/internal/server/repositories/events"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoRepositoryManager vends MongoDB-backed repositories. Uniqueness comes
// from the indexes created by RunMigrations.
type MongoRepositoryManager struct {
	client        *mongo.Client
	users         *users.MongoRepository
	events        *events.MongoRepository
	registrations *registrations.MongoRepository
}

// NewMongoRepositoryManager connects to uri and verifies the server is
// reachable before returning.
func NewMongoRepositoryManager(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	db := client.Database(database)
	return &MongoRepositoryManager{
		client:        client,
		users:         users.NewMongoRepository(db),
		events:        events.NewMongoRepository(db),
		registrations: registrations.NewMongoRepository(db),
	}, nil
}

func (m *MongoRepositoryManager) Users() users.Repository { return m.users }

func (m *MongoRepositoryManager) Events() events.Repository { return m.events }

func (m *MongoRepositoryManager) Registrations() registrations.Repository { return m.registrations }

func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := m.events.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.registrations.EnsureIndexes(ctx)
}

// RunInTx runs fn directly. Multi-document transactions need a replica set,
// which a single campus deployment does not have; callers order their writes
// so a partial failure leaves no dangling references.
func (m *MongoRepositoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	return fn(ctx, m)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
