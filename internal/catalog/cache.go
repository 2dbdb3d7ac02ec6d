package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"mediabot/internal/domain"
)

// RecordCache fronts FindOneByRef with an expirable LRU. Delivery resolves
// the same references repeatedly when a result set is popular; records are
// read-only after ingestion, so a short TTL only bounds staleness after an
// admin deletion.
type RecordCache struct {
	store *Store
	lru   *expirable.LRU[string, *domain.ContentRecord]
}

func NewRecordCache(store *Store, maxSize int, ttl time.Duration) *RecordCache {
	return &RecordCache{
		store: store,
		lru:   expirable.NewLRU[string, *domain.ContentRecord](maxSize, nil, ttl),
	}
}

// Resolve returns the record for ref, from cache when possible.
// A missing record is (nil, nil), mirroring the store.
func (c *RecordCache) Resolve(ctx context.Context, ref string) (*domain.ContentRecord, error) {
	if rec, ok := c.lru.Get(ref); ok {
		return rec, nil
	}
	rec, err := c.store.FindOneByRef(ctx, ref)
	if err != nil || rec == nil {
		return rec, err
	}
	c.lru.Add(ref, rec)
	return rec, nil
}

// Invalidate drops a cached record after an admin deletion.
func (c *RecordCache) Invalidate(ref string) {
	c.lru.Remove(ref)
}
