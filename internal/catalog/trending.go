package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// TrendingEntry is one row of the per-query usage counters.
type TrendingEntry struct {
	Query    string    `bson:"_id"`
	Count    int64     `bson:"count"`
	LastUsed time.Time `bson:"last_used"`
}

// BumpTrending increments the counter for a query key and refreshes its
// timestamp in one atomic upsert. Concurrent bumps rely on the store's
// native $inc, not application locking.
func (s *Store) BumpTrending(ctx context.Context, key string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.trending.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$inc": bson.M{"count": 1},
			"$set": bson.M{"last_used": now},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("bump trending %q: %w", key, err)
	}
	return nil
}

// TopTrending returns the most-used queries, busiest first.
func (s *Store) TopTrending(ctx context.Context, limit int64) ([]TrendingEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "count", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.trending.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find trending: %w", err)
	}
	defer cursor.Close(ctx)

	var out []TrendingEntry
	for cursor.Next(ctx) {
		var e TrendingEntry
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode trending entry: %w", err)
		}
		out = append(out, e)
	}
	return out, cursor.Err()
}
