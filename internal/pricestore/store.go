// Package pricestore caches fetched price tables so that every consumer in a
// cycle reads the same table, and repeat requests for a window never hit the
// upstream twice while the entry is fresh.
package pricestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/metrics"
	"github.com/alphatic/alphatic/internal/provider"
	"github.com/alphatic/alphatic/internal/storage/snapshot"
)

// Entry is one cached table together with the time it was fetched. FetchedAt
// drives the freshness rule for windows that end today; historical windows
// never expire because closed trading days do not change.
type Entry struct {
	Table     core.PriceTable `json:"table"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Store is the in-memory price-table cache. Concurrent requests for the same
// key are coalesced into a single upstream fetch; failures are never cached.
type Store struct {
	provider   provider.Provider
	currentTTL time.Duration

	mu      sync.RWMutex
	entries map[string]Entry

	group singleflight.Group

	now       func() time.Time
	snapshots snapshot.Store
	metrics   *metrics.Registry
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Used in tests to cross TTL boundaries
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSnapshots attaches a cold-snapshot backend. Fetched tables are written
// through on success, and a cache miss consults the snapshot before going
// upstream, so restarts do not refetch history that is already on disk.
func WithSnapshots(store snapshot.Store) Option {
	return func(s *Store) { s.snapshots = store }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a price-table cache backed by the given provider. currentTTL
// applies only to entries whose window ends today.
func New(p provider.Provider, currentTTL time.Duration, opts ...Option) *Store {
	s := &Store{
		provider:   p,
		currentTTL: currentTTL,
		entries:    make(map[string]Entry),
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key derives the cache key for a request: the sorted ticker set plus the
// date window. Ticker order in the request never changes the key.
func Key(tickers []string, start, end time.Time) string {
	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)

	raw := fmt.Sprintf("%s|%s|%s",
		strings.Join(sorted, ","),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

// Resolve returns the price table for the ticker set over [start, end],
// serving from cache when the entry is fresh and fetching otherwise.
// Concurrent callers resolving the same key share one fetch.
func (s *Store) Resolve(ctx context.Context, tickers []string, start, end time.Time) (core.PriceTable, error) {
	key := Key(tickers, start, end)

	if entry, ok := s.lookup(key, end); ok {
		s.recordHit()
		return entry.Table, nil
	}
	if table, ok := s.lookupCovering(tickers, start, end); ok {
		s.recordHit()
		return table, nil
	}
	s.recordMiss()

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have
		// populated the entry while this one waited for the lock.
		if entry, ok := s.lookup(key, end); ok {
			return entry.Table, nil
		}
		if table, ok := s.lookupCovering(tickers, start, end); ok {
			return table, nil
		}

		if entry, ok := s.loadSnapshot(ctx, key, end); ok {
			s.store(key, entry)
			return entry.Table, nil
		}

		table, err := s.fetch(ctx, tickers, start, end)
		if err != nil {
			return nil, err
		}

		entry := Entry{Table: table, FetchedAt: s.now()}
		s.store(key, entry)
		s.writeSnapshot(ctx, key, entry)
		return table, nil
	})
	if err != nil {
		return core.PriceTable{}, err
	}
	return v.(core.PriceTable), nil
}

// Invalidate drops the entry for a request, forcing the next Resolve to
// fetch.
func (s *Store) Invalidate(tickers []string, start, end time.Time) {
	key := Key(tickers, start, end)
	s.mu.Lock()
	delete(s.entries, key)
	if s.metrics != nil {
		s.metrics.SetCacheEntries(len(s.entries))
	}
	s.mu.Unlock()
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) lookup(key string, windowEnd time.Time) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if !s.fresh(entry, windowEnd) {
		return Entry{}, false
	}
	return entry, true
}

// lookupCovering searches fresh entries for one whose ticker set contains
// every requested ticker and whose window covers the request, and derives the
// requested table from it. A single-ticker resolve right after a universe
// scan must read the scan's bytes, not issue a second fetch that could
// return different data for the same window.
func (s *Store) lookupCovering(tickers []string, start, end time.Time) (core.PriceTable, bool) {
	req := core.Window{Start: start, End: end}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if !entry.Table.Window.Covers(req) {
			continue
		}
		if !s.fresh(entry, entry.Table.Window.End) {
			continue
		}

		table := core.PriceTable{Window: req, Series: make(map[string]core.PriceSeries, len(tickers))}
		complete := true
		for _, ticker := range tickers {
			series, ok := entry.Table.Get(ticker)
			if !ok {
				complete = false
				break
			}
			table.Series[ticker] = series.Slice(start, end)
		}
		if complete {
			return table, true
		}
	}
	return core.PriceTable{}, false
}

func (s *Store) store(key string, entry Entry) {
	s.mu.Lock()
	s.entries[key] = entry
	if s.metrics != nil {
		s.metrics.SetCacheEntries(len(s.entries))
	}
	s.mu.Unlock()
}

// fresh applies the two-tier freshness rule: an entry whose window closed
// before the day it was fetched captured only completed trading days and is
// immutable forever; an entry whose window was still open when fetched holds
// a provisional intra-day close and expires after currentTTL. The comparison
// must use the fetch day, not the current day: an open-window entry does not
// become immutable just because midnight passed since.
func (s *Store) fresh(entry Entry, windowEnd time.Time) bool {
	fetched := entry.FetchedAt
	fetchDay := time.Date(fetched.Year(), fetched.Month(), fetched.Day(), 0, 0, 0, 0, fetched.Location())
	if windowEnd.Before(fetchDay) {
		return true
	}
	return s.now().Sub(entry.FetchedAt) < s.currentTTL
}

// fetch calls the provider with metrics instrumentation around the attempt.
func (s *Store) fetch(ctx context.Context, tickers []string, start, end time.Time) (core.PriceTable, error) {
	if s.metrics != nil {
		s.metrics.RecordFetchAttempt()
	}

	began := time.Now()
	table, err := s.provider.FetchTable(ctx, tickers, start, end)
	if s.metrics != nil {
		s.metrics.RecordFetchDuration(time.Since(began).Seconds())
		if err != nil {
			s.metrics.RecordFetchFailure(failureCause(err))
		}
	}
	return table, err
}

// failureCause maps a provider error onto a stable metric label.
func failureCause(err error) string {
	switch {
	case errors.Is(err, core.ErrNoUpstreamData):
		return "no_data"
	case errors.Is(err, core.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, core.ErrUnreachable), errors.Is(err, core.ErrFetchFailed):
		return "transient"
	default:
		return "other"
	}
}

func (s *Store) loadSnapshot(ctx context.Context, key string, windowEnd time.Time) (Entry, bool) {
	if s.snapshots == nil {
		return Entry{}, false
	}
	data, err := s.snapshots.Read(ctx, snapshotPath(key))
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("discarding unreadable snapshot",
			zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	if !s.fresh(entry, windowEnd) {
		return Entry{}, false
	}
	return entry, true
}

// writeSnapshot is best-effort: a snapshot failure is logged, never surfaced,
// because the in-memory entry already satisfies the request.
func (s *Store) writeSnapshot(ctx context.Context, key string, entry Entry) {
	if s.snapshots == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("snapshot marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.snapshots.Write(ctx, snapshotPath(key), data); err != nil {
		s.logger.Warn("snapshot write failed", zap.String("key", key), zap.Error(err))
	}
}

func snapshotPath(key string) string {
	return "tables/" + key + ".json"
}

func (s *Store) recordHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit()
	}
}

func (s *Store) recordMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}
}
