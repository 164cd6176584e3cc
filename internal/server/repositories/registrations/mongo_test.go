package registrations

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type fakeCollection struct {
	insertErr error
	inserted  []any

	count   int64
	filters []any

	docs     []any
	pipeline any

	deleted []any
}

func (f *fakeCollection) InsertOne(_ context.Context, doc any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, doc)
	return &mongo.InsertOneResult{Acknowledged: true}, nil
}

func (f *fakeCollection) CountDocuments(_ context.Context, filter any, _ ...options.Lister[options.CountOptions]) (int64, error) {
	f.filters = append(f.filters, filter)
	return f.count, nil
}

func (f *fakeCollection) Find(_ context.Context, filter any, _ ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	f.filters = append(f.filters, filter)
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

func (f *fakeCollection) Aggregate(_ context.Context, pipeline any, _ ...options.Lister[options.AggregateOptions]) (*mongo.Cursor, error) {
	f.pipeline = pipeline
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

func (f *fakeCollection) DeleteMany(_ context.Context, filter any, _ ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	f.deleted = append(f.deleted, filter)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

type fakeIndexes struct {
	models []mongo.IndexModel
}

func (f *fakeIndexes) CreateMany(_ context.Context, m []mongo.IndexModel, _ ...options.Lister[options.CreateIndexesOptions]) ([]string, error) {
	f.models = m
	return nil, nil
}

func TestMongo_EnsureIndexes(t *testing.T) {
	idx := &fakeIndexes{}
	r := &MongoRepository{coll: &fakeCollection{}, indexes: idx}
	require.NoError(t, r.EnsureIndexes(context.Background()))
	require.Len(t, idx.models, 3)

	for i, second := range []string{"usn", "email"} {
		m := idx.models[i]
		assert.Equal(t, bson.D{{Key: "event_id", Value: 1}, {Key: second, Value: 1}}, m.Keys)

		var o options.IndexOptions
		for _, set := range m.Options.List() {
			require.NoError(t, set(&o))
		}
		require.NotNil(t, o.Unique)
		assert.True(t, *o.Unique)
	}
}

func TestMongo_CreateMapsDuplicateKey(t *testing.T) {
	coll := &fakeCollection{}
	r := &MongoRepository{coll: coll}
	ctx := context.Background()

	got, err := r.Create(ctx, reg("e-1", "1RV22CS001", "a@uni.edu"))
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.RegisteredAt.IsZero())

	// the second insert of a concurrent pair loses on either compound index
	coll.insertErr = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error index: event_email_unique"}}}
	_, err = r.Create(ctx, reg("e-1", "1RV22CS002", "a@uni.edu"))
	assert.ErrorIs(t, err, common.ErrAlreadyRegistered)

	coll.insertErr = errors.New("connection reset")
	_, err = r.Create(ctx, reg("e-1", "1RV22CS003", "c@uni.edu"))
	assert.NotErrorIs(t, err, common.ErrAlreadyRegistered)
	assert.ErrorContains(t, err, "connection reset")
}

func TestMongo_ExistsChecksBothKeys(t *testing.T) {
	coll := &fakeCollection{count: 1}
	r := &MongoRepository{coll: coll}

	ok, err := r.Exists(context.Background(), "e-1", "1RV22CS001", "a@uni.edu")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bson.M{
		"event_id": "e-1",
		"$or":      bson.A{bson.M{"usn": "1RV22CS001"}, bson.M{"email": "a@uni.edu"}},
	}, coll.filters[0])

	coll.count = 0
	ok, err = r.ExistsByUSN(context.Background(), "e-1", "1RV22CS009")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMongo_EventIDsByUSN(t *testing.T) {
	coll := &fakeCollection{docs: []any{bson.M{"event_id": "e-1"}, bson.M{"event_id": "e-2"}}}
	r := &MongoRepository{coll: coll}

	ids, err := r.EventIDsByUSN(context.Background(), "1RV22CS001")
	require.NoError(t, err)
	assert.Equal(t, []string{"e-1", "e-2"}, ids)
	assert.Equal(t, bson.M{"usn": "1RV22CS001"}, coll.filters[0])
}

func TestMongo_CountByEvents(t *testing.T) {
	coll := &fakeCollection{docs: []any{bson.M{"_id": "e-1", "count": int64(3)}}}
	r := &MongoRepository{coll: coll}

	counts, err := r.CountByEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Nil(t, coll.pipeline)

	counts, err = r.CountByEvents(context.Background(), []string{"e-1", "e-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"e-1": 3}, counts)
}

func TestMongo_DeleteByEvent(t *testing.T) {
	coll := &fakeCollection{}
	r := &MongoRepository{coll: coll}

	require.NoError(t, r.DeleteByEvent(context.Background(), "e-1"))
	assert.Equal(t, []any{bson.M{"event_id": "e-1"}}, coll.deleted)
}
