package search

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"mediabot/internal/domain"
	"mediabot/internal/metrics"
)

// minTrendingQueryLen: queries shorter than this, in runes, never count
// as trending.
const minTrendingQueryLen = 3

// ExecutorConfig carries the tunables of the search path. Threshold and
// working-set size are deployment-chosen constants (see NewExecutor).
type ExecutorConfig struct {
	PageSize        int           // results per page
	FuzzyThreshold  float64       // 0..1 distance bound for the fallback matcher
	FuzzyCandidates int64         // working-set size for the fallback matcher
	CacheTTL        time.Duration // lifetime of a ranked fallback result set
}

// Executor runs composed predicates against the catalog with pagination,
// falls back to fuzzy matching on empty exact results, and feeds the
// trending counters. It never returns an error: store failures degrade to
// an empty page so a search can never crash the transport layer.
type Executor struct {
	store    domain.CatalogStore
	trending domain.TrendingStore
	composer *Composer
	matcher  *Matcher
	cache    *resultCache
	clock    clockwork.Clock
	cfg      ExecutorConfig
	logger   *slog.Logger
}

func NewExecutor(store domain.CatalogStore, trending domain.TrendingStore, composer *Composer, clock clockwork.Clock, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = 0.4
	}
	if cfg.FuzzyCandidates <= 0 {
		cfg.FuzzyCandidates = 1000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Executor{
		store:    store,
		trending: trending,
		composer: composer,
		matcher:  NewMatcher(cfg.FuzzyThreshold),
		cache:    newResultCache(clock, cfg.CacheTTL),
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With("component", "search"),
	}
}

// PageSize exposes the configured window size for the UI layer.
func (e *Executor) PageSize() int { return e.cfg.PageSize }

// Search returns one page for {query, filters, page}. Page numbers are
// zero-based; negative pages clamp to 0.
func (e *Executor) Search(ctx context.Context, query string, f domain.SearchFilters, page int) domain.SearchResult {
	start := e.clock.Now()
	metrics.SearchesTotal.Inc()
	if page < 0 {
		page = 0
	}
	query = strings.TrimSpace(query)

	e.noteTrending(ctx, query, f, page)

	pred := e.composer.Compose(query, f)
	size := int64(e.cfg.PageSize)
	skip := int64(page) * size

	// Overfetch by one record: presence of the extra row is the hasNext
	// signal without a second count query.
	records, err := e.store.Find(ctx, pred, skip, size+1)
	if err != nil {
		e.logger.Error("catalog find failed", "query", query, "page", page, "err", err)
		return domain.SearchResult{}
	}
	metrics.SearchDuration.Observe(e.clock.Since(start).Seconds())

	if len(records) == 0 && query != "" && !f.Language.Set && !f.Year.Set {
		return e.fallback(ctx, query, f, page)
	}

	hasNext := int64(len(records)) > size
	if hasNext {
		records = records[:size]
	}
	if len(records) == 0 {
		metrics.EmptySearchesTotal.Inc()
	}
	return domain.SearchResult{
		Records: records,
		HasNext: hasNext,
		HasPrev: page > 0,
	}
}

// fallback serves approximate matches from an in-memory ranked list. The
// list is built once per (query, quality) and paginated client-side for
// its cached lifetime; later pages do not re-query the store.
func (e *Executor) fallback(ctx context.Context, query string, f domain.SearchFilters, page int) domain.SearchResult {
	metrics.FallbackTotal.Inc()

	key := strings.ToLower(query)
	if f.Quality.Set {
		key += "|" + strings.ToLower(f.Quality.Value)
	}

	ranked, ok := e.cache.Get(key)
	if !ok {
		// Working set: the most recent candidates, narrowed by the quality
		// filter when one is active (quality is store-expressible; the
		// query text is what went fuzzy).
		pred := e.composer.Compose("", domain.SearchFilters{Quality: f.Quality})
		candidates, err := e.store.Find(ctx, pred, 0, e.cfg.FuzzyCandidates)
		if err != nil {
			e.logger.Error("fallback candidate fetch failed", "query", query, "err", err)
			return domain.SearchResult{}
		}
		ranked = e.matcher.Rank(query, candidates)
		e.cache.Put(key, ranked)
		e.logger.Info("fuzzy fallback",
			"query", query,
			"candidates", len(candidates),
			"matches", len(ranked),
		)
	}

	// Page numbers come from client-controlled tokens; the product can
	// overflow, so clamp lo before deriving hi from it.
	lo := page * e.cfg.PageSize
	if lo < 0 || lo > len(ranked) {
		lo = len(ranked)
	}
	hi := lo + e.cfg.PageSize
	if hi > len(ranked) {
		hi = len(ranked)
	}
	if lo == hi {
		metrics.EmptySearchesTotal.Inc()
	}
	return domain.SearchResult{
		Records:    ranked[lo:hi],
		HasNext:    len(ranked) > hi,
		HasPrev:    page > 0,
		IsFallback: true,
	}
}

// noteTrending bumps the usage counter for unfiltered first-page searches.
// Counter writes are fire-and-forget: a failed bump only loses a stat.
func (e *Executor) noteTrending(ctx context.Context, query string, f domain.SearchFilters, page int) {
	if page != 0 || !f.Empty() || utf8.RuneCountInString(query) < minTrendingQueryLen {
		return
	}
	if err := e.trending.BumpTrending(ctx, strings.ToLower(query), e.clock.Now()); err != nil {
		e.logger.Warn("trending bump failed", "query", query, "err", err)
		return
	}
	metrics.TrendingBumpsTotal.Inc()
}
