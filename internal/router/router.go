package router

import (
	"sync"
	"time"

	"github.com/alphatic/alphatic/internal/notifier"
	"go.uber.org/zap"
)

// Config holds alert routing configuration.
type Config struct {
	// Cooldown suppresses repeat alerts for the same kind and ticker.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// EnabledKinds whitelists alert kinds; empty means all kinds pass.
	EnabledKinds []string `mapstructure:"enabled_kinds"`
}

// DefaultConfig returns default routing configuration.
func DefaultConfig() Config {
	return Config{
		Cooldown: 1 * time.Hour,
		EnabledKinds: []string{
			notifier.KindConsistencyMismatch,
			notifier.KindSignalConflict,
			notifier.KindFetchFailure,
		},
	}
}

// Router sits between the engine and the notifier registry. It drops
// alert kinds the operator disabled and rate-limits repeats per kind
// and ticker, so a ticker stuck in conflict does not page every cycle.
type Router struct {
	cfg      Config
	registry *notifier.Registry
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	cooldowns map[string]time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates an alert router in front of registry. A nil registry is
// allowed; routing then only tracks cooldowns.
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		now:       time.Now,
		cooldowns: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route delivers one alert to every registered notifier, unless the
// alert is filtered out. Filtered alerts are dropped silently; delivery
// failures are logged, never returned, so alerting stays best-effort.
func (r *Router) Route(alert notifier.Alert) bool {
	if !r.passesFilters(alert) {
		r.logger.Debug("alert filtered out",
			zap.String("kind", alert.Kind),
			zap.String("ticker", alert.Ticker),
		)
		return false
	}

	r.mu.Lock()
	r.cooldowns[cooldownKey(alert)] = r.now()
	r.mu.Unlock()

	if r.registry == nil {
		return true
	}

	errs := r.registry.NotifyAll(alert)
	for name, err := range errs {
		r.logger.Error("notifier failed",
			zap.String("notifier", name),
			zap.Error(err),
		)
	}

	r.logger.Info("alert routed",
		zap.String("kind", alert.Kind),
		zap.String("ticker", alert.Ticker),
		zap.Int("notifiers", len(r.registry.GetAll())),
		zap.Int("errors", len(errs)),
	)
	return true
}

// RouteBatch filters a slice of alerts and delivers the survivors in
// one batch per notifier.
func (r *Router) RouteBatch(alerts []notifier.Alert) int {
	var filtered []notifier.Alert
	for _, alert := range alerts {
		if !r.passesFilters(alert) {
			continue
		}
		filtered = append(filtered, alert)
		r.mu.Lock()
		r.cooldowns[cooldownKey(alert)] = r.now()
		r.mu.Unlock()
	}

	if len(filtered) == 0 {
		return 0
	}

	if r.registry != nil {
		errs := r.registry.NotifyAllBatch(filtered)
		for name, err := range errs {
			r.logger.Error("notifier failed on batch",
				zap.String("notifier", name),
				zap.Error(err),
			)
		}
	}
	return len(filtered)
}

func (r *Router) passesFilters(alert notifier.Alert) bool {
	if len(r.cfg.EnabledKinds) > 0 {
		allowed := false
		for _, k := range r.cfg.EnabledKinds {
			if alert.Kind == k {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if r.cfg.Cooldown <= 0 {
		return true
	}

	r.mu.RLock()
	last, exists := r.cooldowns[cooldownKey(alert)]
	r.mu.RUnlock()

	return !exists || r.now().Sub(last) >= r.cfg.Cooldown
}

func cooldownKey(alert notifier.Alert) string {
	return alert.Kind + "/" + alert.Ticker
}

// ClearCooldown removes the cooldown for one kind and ticker.
func (r *Router) ClearCooldown(kind, ticker string) {
	r.mu.Lock()
	delete(r.cooldowns, kind+"/"+ticker)
	r.mu.Unlock()
}

// CleanupExpired removes cooldown entries older than twice the cooldown
// window and reports how many were dropped.
func (r *Router) CleanupExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry := r.cfg.Cooldown * 2
	removed := 0
	for key, last := range r.cooldowns {
		if r.now().Sub(last) > expiry {
			delete(r.cooldowns, key)
			removed++
		}
	}
	return removed
}

// ActiveCooldowns reports how many kind/ticker pairs are currently
// suppressed.
func (r *Router) ActiveCooldowns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cooldowns)
}
