package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"mediabot/internal/domain"
	"mediabot/internal/filters"
)

// fakeStore evaluates predicates in memory the way the document store
// would: every regex clause must match the record name.
type fakeStore struct {
	records   []domain.ContentRecord // most recent first
	findCalls int
	failFind  bool

	bumps map[string]int
}

func (s *fakeStore) matches(pred domain.Predicate, rec domain.ContentRecord) bool {
	clauses := []domain.Predicate{pred}
	if and, ok := pred["$and"].([]any); ok {
		clauses = clauses[:0]
		for _, c := range and {
			clauses = append(clauses, c.(domain.Predicate))
		}
	}
	for _, c := range clauses {
		cond, ok := c[nameField].(map[string]any)
		if !ok {
			continue // empty predicate clause
		}
		re := regexp.MustCompile(`(?i)` + cond["$regex"].(string))
		if !re.MatchString(rec.Name) {
			return false
		}
	}
	return true
}

func (s *fakeStore) Find(_ context.Context, pred domain.Predicate, skip, limit int64) ([]domain.ContentRecord, error) {
	s.findCalls++
	if s.failFind {
		return nil, errors.New("connection reset")
	}
	var matched []domain.ContentRecord
	for _, r := range s.records {
		if s.matches(pred, r) {
			matched = append(matched, r)
		}
	}
	if skip > int64(len(matched)) {
		skip = int64(len(matched))
	}
	matched = matched[skip:]
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *fakeStore) Count(ctx context.Context, pred domain.Predicate) (int64, error) {
	all, err := s.Find(ctx, pred, 0, int64(len(s.records)))
	return int64(len(all)), err
}

func (s *fakeStore) FindOneByRef(_ context.Context, ref string) (*domain.ContentRecord, error) {
	for _, r := range s.records {
		if r.Ref == ref {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Insert(_ context.Context, rec domain.ContentRecord) error {
	s.records = append([]domain.ContentRecord{rec}, s.records...)
	return nil
}

func (s *fakeStore) DeleteOneByRef(_ context.Context, ref string) error { return nil }

func (s *fakeStore) BumpTrending(_ context.Context, key string, _ time.Time) error {
	if s.bumps == nil {
		s.bumps = make(map[string]int)
	}
	s.bumps[key]++
	return nil
}

func newTestExecutor(store *fakeStore, cfg ExecutorConfig) *Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	composer := NewComposer(filters.Default())
	return NewExecutor(store, store, composer, clockwork.NewFakeClock(), cfg, logger)
}

func manyRecords(prefix string, n int) []domain.ContentRecord {
	out := make([]domain.ContentRecord, n)
	for i := range out {
		out[i] = domain.ContentRecord{
			Ref:  fmt.Sprintf("%s-%d", prefix, i),
			Name: fmt.Sprintf("%s Part %d 2020 720p", prefix, i),
		}
	}
	return out
}

func TestSearch_PaginationFlags(t *testing.T) {
	store := &fakeStore{records: manyRecords("Inception", 25)}
	e := newTestExecutor(store, ExecutorConfig{})

	page0 := e.Search(context.Background(), "Inception", domain.SearchFilters{}, 0)
	if len(page0.Records) != 10 || !page0.HasNext || page0.HasPrev {
		t.Fatalf("page 0: got %d records, next=%v prev=%v", len(page0.Records), page0.HasNext, page0.HasPrev)
	}

	page2 := e.Search(context.Background(), "Inception", domain.SearchFilters{}, 2)
	if len(page2.Records) != 5 || page2.HasNext || !page2.HasPrev {
		t.Fatalf("page 2: got %d records, next=%v prev=%v", len(page2.Records), page2.HasNext, page2.HasPrev)
	}
}

func TestSearch_ExactPageBoundary(t *testing.T) {
	// 10 matching records: one full page and no second page.
	store := &fakeStore{records: manyRecords("Inception", 10)}
	e := newTestExecutor(store, ExecutorConfig{})

	res := e.Search(context.Background(), "Inception", domain.SearchFilters{}, 0)
	if len(res.Records) != 10 {
		t.Fatalf("got %d records, want 10", len(res.Records))
	}
	if res.HasNext {
		t.Fatal("exactly one page of matches must not report hasNext")
	}
	if store.bumps["inception"] != 1 {
		t.Fatalf("trending bump count = %d, want 1", store.bumps["inception"])
	}
}

func TestSearch_HasPrevTracksPage(t *testing.T) {
	store := &fakeStore{records: manyRecords("Dune", 40)}
	e := newTestExecutor(store, ExecutorConfig{})
	for page := 0; page < 4; page++ {
		res := e.Search(context.Background(), "Dune", domain.SearchFilters{}, page)
		if res.HasPrev != (page > 0) {
			t.Fatalf("page %d: hasPrev = %v", page, res.HasPrev)
		}
	}
}

func TestSearch_StoreErrorDegradesToEmpty(t *testing.T) {
	store := &fakeStore{failFind: true}
	e := newTestExecutor(store, ExecutorConfig{})

	res := e.Search(context.Background(), "anything", domain.SearchFilters{}, 3)
	if len(res.Records) != 0 || res.HasNext || res.HasPrev || res.IsFallback {
		t.Fatalf("store failure must yield a zeroed result, got %+v", res)
	}
}

func TestSearch_FallbackTrigger(t *testing.T) {
	candidates := []domain.ContentRecord{{Ref: "1", Name: "Inception 2010 1080p"}}

	cases := []struct {
		name     string
		query    string
		filters  domain.SearchFilters
		fallback bool
	}{
		{"typo, no filters", "Intercepton", domain.SearchFilters{}, true},
		{"typo, quality only", "Intercepton", domain.SearchFilters{Quality: domain.Filter("1080p")}, true},
		{"typo, language filter", "Intercepton", domain.SearchFilters{Language: domain.Filter("HI")}, false},
		{"typo, year filter", "Intercepton", domain.SearchFilters{Year: domain.Filter("2010")}, false},
		{"empty query", "", domain.SearchFilters{Quality: domain.Filter("720p")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{records: candidates}
			e := newTestExecutor(store, ExecutorConfig{})
			res := e.Search(context.Background(), tc.query, tc.filters, 0)
			if res.IsFallback != tc.fallback {
				t.Fatalf("isFallback = %v, want %v", res.IsFallback, tc.fallback)
			}
			if tc.fallback && len(res.Records) == 0 {
				t.Fatal("fallback should surface the near-miss title")
			}
		})
	}
}

func TestSearch_FallbackNotTriggeredWhenExactHits(t *testing.T) {
	store := &fakeStore{records: manyRecords("Inception", 3)}
	e := newTestExecutor(store, ExecutorConfig{})
	res := e.Search(context.Background(), "Inception", domain.SearchFilters{}, 0)
	if res.IsFallback {
		t.Fatal("exact hits must never be flagged as fallback")
	}
}

func TestSearch_FallbackPagesFromCache(t *testing.T) {
	// 15 near-miss titles: two fallback pages, second page comes from the
	// cached ranked list without another store query.
	var records []domain.ContentRecord
	for i := 0; i < 15; i++ {
		records = append(records, domain.ContentRecord{
			Ref:  fmt.Sprintf("r%d", i),
			Name: fmt.Sprintf("Inception Disc %d", i),
		})
	}
	store := &fakeStore{records: records}
	e := newTestExecutor(store, ExecutorConfig{})

	page0 := e.Search(context.Background(), "Intercepton", domain.SearchFilters{}, 0)
	if !page0.IsFallback || len(page0.Records) != 10 || !page0.HasNext {
		t.Fatalf("fallback page 0: %d records, next=%v fb=%v", len(page0.Records), page0.HasNext, page0.IsFallback)
	}
	callsAfterPage0 := store.findCalls

	page1 := e.Search(context.Background(), "Intercepton", domain.SearchFilters{}, 1)
	if !page1.IsFallback || len(page1.Records) != 5 || page1.HasNext || !page1.HasPrev {
		t.Fatalf("fallback page 1: %d records, next=%v prev=%v", len(page1.Records), page1.HasNext, page1.HasPrev)
	}
	// Page 1 still runs the exact query (one Find), but must not refetch
	// the fallback working set.
	if store.findCalls != callsAfterPage0+1 {
		t.Fatalf("fallback page 1 made %d extra Find calls, want 1", store.findCalls-callsAfterPage0)
	}
}

func TestSearch_FallbackHugePageClamps(t *testing.T) {
	// Page numbers arrive in client-controlled callback tokens, so the
	// fallback pager must survive values whose byte offsets overflow.
	store := &fakeStore{records: manyRecords("Inception", 5)}
	e := newTestExecutor(store, ExecutorConfig{})

	res := e.Search(context.Background(), "Intercepton", domain.SearchFilters{}, math.MaxInt/10)
	if !res.IsFallback {
		t.Fatal("misspelled query did not reach the fallback pager")
	}
	if len(res.Records) != 0 {
		t.Errorf("page far past the end returned %d records", len(res.Records))
	}
	if res.HasNext {
		t.Error("hasNext set past the end of the ranked list")
	}
	if !res.HasPrev {
		t.Error("hasPrev clear on a nonzero page")
	}
}

func TestSearch_TrendingRules(t *testing.T) {
	store := &fakeStore{records: manyRecords("Inception", 5)}
	e := newTestExecutor(store, ExecutorConfig{})
	ctx := context.Background()

	e.Search(ctx, "Inception", domain.SearchFilters{}, 0)                               // counts
	e.Search(ctx, "Inception", domain.SearchFilters{}, 1)                               // page > 0: no
	e.Search(ctx, "Inception", domain.SearchFilters{Quality: domain.Filter("720p")}, 0) // filtered: no
	e.Search(ctx, "ab", domain.SearchFilters{}, 0)                                      // too short: no
	e.Search(ctx, "её", domain.SearchFilters{}, 0)                                      // two runes, four bytes: still too short
	e.Search(ctx, "изгой", domain.SearchFilters{}, 0)                                   // five runes: counts
	e.Search(ctx, "", domain.SearchFilters{}, 0)                                        // empty: no

	if got := store.bumps["inception"]; got != 1 {
		t.Fatalf(`bumps["inception"] = %d, want 1`, got)
	}
	if got := store.bumps["изгой"]; got != 1 {
		t.Fatalf(`bumps["изгой"] = %d, want 1`, got)
	}
	if len(store.bumps) != 2 {
		t.Fatalf("unexpected trending keys: %v", store.bumps)
	}
}
