package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const registrationCollection = "registrations"

// collection is the part of *mongo.Collection the repository uses.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	Aggregate(ctx context.Context, pipeline any, opts ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error)
	DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error)
}

type indexCreator interface {
	CreateMany(ctx context.Context, models []mongo.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) ([]string, error)
}

type MongoRepository struct {
	coll    collection
	indexes indexCreator
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	coll := db.Collection(registrationCollection)
	return &MongoRepository{coll: coll, indexes: coll.Indexes()}
}

// EnsureIndexes creates the two compound unique indexes that make the
// ledger's uniqueness hold under concurrent inserts.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "usn", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("event_usn_unique"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("event_email_unique"),
		},
		{Keys: bson.D{{Key: "usn", Value: 1}}},
	}
	if _, err := r.indexes.CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create registration indexes: %w", err)
	}
	return nil
}

func mapMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return common.ErrAlreadyRegistered
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *MongoRepository) Create(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	reg.ID = uuid.NewString()
	reg.RegisteredAt = time.Now().UTC()

	if _, err := r.coll.InsertOne(ctx, reg); err != nil {
		return nil, mapMongoError(err)
	}
	return reg, nil
}

func (r *MongoRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, mapMongoError(err)
	}
	return n > 0, nil
}

func (r *MongoRepository) Exists(ctx context.Context, eventID, usn, email string) (bool, error) {
	return r.exists(ctx, bson.M{
		"event_id": eventID,
		"$or":      bson.A{bson.M{"usn": usn}, bson.M{"email": email}},
	})
}

func (r *MongoRepository) ExistsByUSN(ctx context.Context, eventID, usn string) (bool, error) {
	return r.exists(ctx, bson.M{"event_id": eventID, "usn": usn})
}

func (r *MongoRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"event_id": eventID},
		options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}}))
	if err != nil {
		return nil, mapMongoError(err)
	}
	result := make([]*models.Registration, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, mapMongoError(err)
	}
	return result, nil
}

// EventIDsByUSN relies on the (event_id, usn) unique index: each event
// appears at most once for a given usn.
func (r *MongoRepository) EventIDsByUSN(ctx context.Context, usn string) ([]string, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"usn": usn},
		options.Find().SetProjection(bson.M{"event_id": 1, "_id": 0}))
	if err != nil {
		return nil, mapMongoError(err)
	}
	var rows []struct {
		EventID string `bson:"event_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, mapMongoError(err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.EventID)
	}
	return ids, nil
}

func (r *MongoRepository) CountByEvents(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"event_id": bson.M{"$in": eventIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$event_id", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapMongoError(err)
	}
	var rows []struct {
		EventID string `bson:"_id"`
		Count   int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, mapMongoError(err)
	}
	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	return counts, nil
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mapMongoError(err)
	}
	return n, nil
}

func (r *MongoRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"event_id": eventID}); err != nil {
		return mapMongoError(err)
	}
	return nil
}
