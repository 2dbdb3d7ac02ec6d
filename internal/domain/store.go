package domain

import (
	"context"
	"time"
)

// CatalogStore is the persistent catalog consumed by the search executor
// and the delivery path. Find returns records in descending ingestion
// order (most recent first).
type CatalogStore interface {
	Find(ctx context.Context, pred Predicate, skip, limit int64) ([]ContentRecord, error)
	Count(ctx context.Context, pred Predicate) (int64, error)
	FindOneByRef(ctx context.Context, ref string) (*ContentRecord, error)
	Insert(ctx context.Context, rec ContentRecord) error
	DeleteOneByRef(ctx context.Context, ref string) error
}

// TrendingStore tracks per-query usage counters. BumpTrending must be
// atomic (increment-and-set-timestamp in one store operation).
type TrendingStore interface {
	BumpTrending(ctx context.Context, key string, now time.Time) error
}
