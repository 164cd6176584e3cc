package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const eventCollection = "events"

// collection is the part of *mongo.Collection the repository uses.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
}

type indexCreator interface {
	CreateMany(ctx context.Context, models []mongo.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) ([]string, error)
}

type MongoRepository struct {
	coll    collection
	indexes indexCreator
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	coll := db.Collection(eventCollection)
	return &MongoRepository{coll: coll, indexes: coll.Indexes()}
}

// EnsureIndexes creates the secondary indexes used by listing and cleanup.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "registration_deadline", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := r.indexes.CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}
	return nil
}

func mapMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOptions]) ([]*models.Event, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapMongoError(err)
	}
	result := make([]*models.Event, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, mapMongoError(err)
	}
	return result, nil
}

func (r *MongoRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return nil, mapMongoError(err)
	}
	return event, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, mapMongoError(err)
	}
	return &e, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Event, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func (r *MongoRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Event, error) {
	if len(ids) == 0 {
		return []*models.Event{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (r *MongoRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	set := bson.M{
		"title":                 event.Title,
		"description":           event.Description,
		"department":            event.Department,
		"club_name":             event.ClubName,
		"date":                  event.Date,
		"time":                  event.Time,
		"venue":                 event.Venue,
		"registration_deadline": event.RegistrationDeadline,
		"whatsapp_group_link":   event.WhatsappGroupLink,
		"rules":                 event.Rules,
		"payment_required":      event.PaymentRequired,
		"payment_qr_key":        event.PaymentQRKey,
		"updated_at":            time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if event.PaymentAmount != nil {
		set["payment_amount"] = *event.PaymentAmount
	} else {
		update["$unset"] = bson.M{"payment_amount": ""}
	}

	var e models.Event
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": event.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err != nil {
		return nil, mapMongoError(err)
	}
	return &e, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Event, error) {
	return r.find(ctx, bson.M{"registration_deadline": bson.M{"$lt": now}})
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mapMongoError(err)
	}
	return n, nil
}

func (r *MongoRepository) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"date": bson.M{"$gte": now}})
	if err != nil {
		return 0, mapMongoError(err)
	}
	return n, nil
}

func (r *MongoRepository) Recent(ctx context.Context, limit int) ([]*models.Event, error) {
	return r.find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
}
