package licensestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultMongoCollection = "licensor_licenses"

// validCollectionName matches safe MongoDB collection names.
var validCollectionName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MongoOption configures a MongoStore.
type MongoOption func(*MongoStore)

// WithCollectionName sets the MongoDB collection name. Default: "licensor_licenses".
func WithCollectionName(name string) MongoOption {
	return func(s *MongoStore) {
		s.collectionName = name
	}
}

// MongoStore implements Store using MongoDB.
type MongoStore struct {
	collection     *mongo.Collection
	collectionName string
}

// NewMongoStore creates a MongoDB-backed store.
// It creates the necessary indexes on initialization.
func NewMongoStore(ctx context.Context, db *mongo.Database, opts ...MongoOption) (*MongoStore, error) {
	s := &MongoStore{
		collectionName: defaultMongoCollection,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !validCollectionName.MatchString(s.collectionName) {
		return nil, fmt.Errorf("invalid collection name %q: must match [a-zA-Z_][a-zA-Z0-9_]*", s.collectionName)
	}
	s.collection = db.Collection(s.collectionName)

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "license_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "issued_at", Value: 1}},
		},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MongoStore) Save(ctx context.Context, rec Record) error {
	set := bson.M{
		"algorithm": rec.Algorithm,
		"encoding":  rec.Encoding,
		"features":  rec.Features,
		"signature": rec.Signature,
		"issued_at": rec.IssuedAt,
	}
	update := bson.M{"$set": set}
	if rec.ExpiresAt != nil {
		set["expires_at"] = *rec.ExpiresAt
	} else {
		update["$unset"] = bson.M{"expires_at": ""}
	}
	opts := options.UpdateOne().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, bson.M{"license_id": rec.LicenseID}, update, opts); err != nil {
		return fmt.Errorf("save license: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, licenseID string) (*Record, error) {
	var rec Record
	err := s.collection.FindOne(ctx, bson.M{"license_id": licenseID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get license: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "issued_at", Value: 1}, {Key: "license_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode licenses: %w", err)
	}
	return records, nil
}

func (s *MongoStore) Revoke(ctx context.Context, licenseID, reason string, at time.Time) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"license_id": licenseID},
		bson.M{"$set": bson.M{"revoked_at": at, "revoke_reason": reason}},
	)
	if err != nil {
		return fmt.Errorf("revoke license: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, licenseID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"license_id": licenseID}); err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(_ context.Context) error {
	return nil // user manages the mongo.Database lifecycle
}
