package storage

import (
	"context"
	"time"

	"github.com/snapbin/snapbin/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements PasteStore using MongoDB. FindOneAndUpdate with $inc
// supplies the atomic decrement; the server serializes updates per document,
// so returned values form a total order.
//
// Deliberately no TTL index on expires_at: time expiry must be decided
// together with the view-budget check by the engine, and a server-side
// background expiration cannot coordinate with the counter.
type MongoStore struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
}

// NewMongoStore creates a new MongoDB storage backend.
func NewMongoStore(url, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	database := client.Database(dbName)
	collection := database.Collection("pastes")

	return &MongoStore{
		client:     client,
		database:   database,
		collection: collection,
	}, nil
}

// Put saves a paste to MongoDB, overwriting any existing document with the
// same id.
func (m *MongoStore) Put(ctx context.Context, paste *models.Paste) error {
	_, err := m.collection.ReplaceOne(
		ctx,
		bson.M{"_id": paste.ID},
		paste,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Get retrieves a paste by its ID.
func (m *MongoStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	var paste models.Paste
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&paste)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &paste, nil
}

// IncrViews atomically adjusts the remaining-views counter and returns the
// new value. Unlike Redis, Mongo can tell when the document vanished before
// the update applied; that surfaces as ErrRecordMissing.
func (m *MongoStore) IncrViews(ctx context.Context, id string, delta int64) (int64, error) {
	var updated models.Paste
	err := m.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"remaining_views": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrRecordMissing
		}
		return 0, err
	}
	if updated.RemainingViews == nil {
		return delta, nil
	}
	return *updated.RemainingViews, nil
}

// Delete removes a paste from MongoDB. Deleting an absent id matches zero
// documents and is not an error.
func (m *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Ping probes the MongoDB connection.
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return m.client.Disconnect(ctx)
}
