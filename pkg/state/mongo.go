package state

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	// URI is the MongoDB connection string (mongodb://...).
	URI string

	// Database is the database name. Defaults to "marginalia".
	Database string

	// Collection is the collection name. Defaults to "documents".
	Collection string
}

// MongoStore is a MongoDB-backed state store for hosted deployments.
// Each document's state is one MongoDB document keyed by _id; the bson
// tags on [DocState] define the stored shape.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore creates a MongoDB-backed store and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := cfg.Database
	if db == "" {
		db = "marginalia"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "documents"
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(coll),
	}, nil
}

// Get retrieves a document's state by id.
// Returns nil, nil if no state exists for the document.
func (s *MongoStore) Get(ctx context.Context, docID string) (*DocState, error) {
	var st DocState
	err := s.coll.FindOne(ctx, bson.M{"_id": docID}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &st, nil
}

// Set stores a document's state, creating or replacing the record.
func (s *MongoStore) Set(ctx context.Context, st *DocState) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": st.ID}, st, opts); err != nil {
		return fmt.Errorf("mongodb replace: %w", err)
	}
	return nil
}

// Delete removes a document's state.
func (s *MongoStore) Delete(ctx context.Context, docID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": docID}); err != nil {
		return fmt.Errorf("mongodb delete: %w", err)
	}
	return nil
}

// List returns the ids of all stored documents.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongodb decode: %w", err)
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongodb cursor: %w", err)
	}
	return ids, nil
}

// Close releases the MongoDB connection.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
