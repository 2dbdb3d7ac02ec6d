// Package metrics wires the Prometheus instrumentation for the search and
// delivery paths and serves the exposition endpoint.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediabot_searches_total",
		Help: "Search requests executed.",
	})
	EmptySearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediabot_empty_searches_total",
		Help: "Searches that returned no records, fallback included.",
	})
	FallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediabot_fuzzy_fallback_total",
		Help: "Searches served by the fuzzy fallback matcher.",
	})
	TrendingBumpsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediabot_trending_bumps_total",
		Help: "Trending counter increments.",
	})
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediabot_search_duration_seconds",
		Help:    "Exact search duration against the catalog store.",
		Buckets: prometheus.DefBuckets,
	})
	DeliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediabot_deliveries_total",
		Help: "Content messages delivered to requesters.",
	})
	DeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediabot_delivery_failures_total",
		Help: "Items skipped because a single send failed.",
	})
	PurgedMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediabot_purged_messages_total",
		Help: "Delivered messages removed by the expiry scheduler.",
	})
)

// Serve exposes /metrics until ctx is cancelled. Blocks.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
