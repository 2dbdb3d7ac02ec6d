// Package catalog is the MongoDB-backed catalog store: content records
// plus the trending counters collection.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mediabot/internal/config"
)

const (
	recordsCollection  = "media_files"
	trendingCollection = "trending"
)

// Store implements domain.CatalogStore and domain.TrendingStore on top of
// a Mongo database.
type Store struct {
	client   *mongo.Client
	records  *mongo.Collection
	trending *mongo.Collection
	timeout  time.Duration
	logger   *slog.Logger
}

// Connect dials the database, pings it, and prepares the collections.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize)).
		SetServerSelectionTimeout(cfg.OpTimeout())

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.OpTimeout())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Name)
	store := &Store{
		client:   client,
		records:  db.Collection(recordsCollection),
		trending: db.Collection(trendingCollection),
		timeout:  cfg.OpTimeout(),
		logger:   logger.With("component", "catalog"),
	}
	logger.Info("catalog store connected", "database", cfg.Name)
	return store, nil
}

// Ping checks connectivity. Used by the doctor command.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

// Close disconnects from the database. It takes no context so call
// sites can defer it directly; the store's own timeout bounds the
// disconnect.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
