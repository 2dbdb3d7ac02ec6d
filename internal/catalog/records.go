package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mediabot/internal/domain"
)

// Find returns matching records in descending ingestion order, honoring
// skip and limit. An empty predicate matches everything.
func (s *Store) Find(ctx context.Context, pred domain.Predicate, skip, limit int64) ([]domain.ContentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.records.Find(ctx, bson.M(pred), opts)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.ContentRecord
	for cursor.Next(ctx) {
		var rec domain.ContentRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, cursor.Err()
}

// Count returns how many records match the predicate.
func (s *Store) Count(ctx context.Context, pred domain.Predicate) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.records.CountDocuments(ctx, bson.M(pred))
}

// FindOneByRef resolves a record by its short stable reference.
// A missing record is (nil, nil), not an error.
func (s *Store) FindOneByRef(ctx context.Context, ref string) (*domain.ContentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rec domain.ContentRecord
	err := s.records.FindOne(ctx, bson.M{"_id": ref}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find record %s: %w", ref, err)
	}
	return &rec, nil
}

// Insert stores a new record. Records are read-only after ingestion, so a
// duplicate reference is reported as ErrDuplicate instead of updating in
// place.
var ErrDuplicate = errors.New("record already indexed")

func (s *Store) Insert(ctx context.Context, rec domain.ContentRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.records.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// DeleteOneByRef removes a record. Admin-only operation.
func (s *Store) DeleteOneByRef(ctx context.Context, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.records.DeleteOne(ctx, bson.M{"_id": ref})
	if err != nil {
		return fmt.Errorf("delete record %s: %w", ref, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureIndexes creates the unique file-id index and the recency sort
// index. Idempotent; called once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.records.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "file_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
