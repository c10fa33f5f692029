package main

import (
	"fmt"
	"net/http"

	"github.com/alphatic/alphatic/internal/config"
	"github.com/alphatic/alphatic/internal/engine"
	"github.com/alphatic/alphatic/internal/llm/factory"
	"github.com/alphatic/alphatic/internal/logger"
	"github.com/alphatic/alphatic/internal/metrics"
	"github.com/alphatic/alphatic/internal/narrator"
	"github.com/alphatic/alphatic/internal/notifier"
	"github.com/alphatic/alphatic/internal/notifier/email"
	"github.com/alphatic/alphatic/internal/notifier/telegram"
	"github.com/alphatic/alphatic/internal/notifier/webhook"
	"github.com/alphatic/alphatic/internal/pricestore"
	"github.com/alphatic/alphatic/internal/provider"
	"github.com/alphatic/alphatic/internal/provider/yahoo"
	"github.com/alphatic/alphatic/internal/router"
	"github.com/alphatic/alphatic/internal/storage/history"
	"github.com/alphatic/alphatic/internal/storage/snapshot"
	"go.uber.org/zap"
)

// historyMaxEntries bounds the in-memory evaluation log kept for
// consistency cross-checks.
const historyMaxEntries = 10000

// runtime bundles the wired components one CLI invocation works with.
type runtime struct {
	cfg     *config.Config
	store   *pricestore.Store
	engine  *engine.Engine
	history history.Store
	metrics *metrics.Registry
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// buildRuntime wires provider, cache, engine, and the optional extras
// (snapshots, notifiers, narrator, metrics) from configuration.
func buildRuntime(cfg *config.Config, log *zap.Logger) (*runtime, error) {
	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	var yopts []yahoo.Option
	if cfg.Provider.BaseURL != "" {
		yopts = append(yopts, yahoo.WithBaseURL(cfg.Provider.BaseURL))
	}
	if cfg.Provider.Timeout > 0 {
		yopts = append(yopts, yahoo.WithHTTPClient(&http.Client{Timeout: cfg.Provider.Timeout}))
	}

	ropts := []provider.RetryOption{provider.WithLogger(logger.Named(log, "provider"))}
	if reg != nil {
		ropts = append(ropts, provider.WithRetryHook(func(attempt int, err error) {
			reg.RecordFetchRetry()
		}))
	}
	prov := provider.NewRetrying(yahoo.New(yopts...), cfg.Provider.MaxAttempts, cfg.Provider.BackoffBase, ropts...)

	sopts := []pricestore.Option{pricestore.WithLogger(logger.Named(log, "pricestore"))}
	snaps, err := buildSnapshots(cfg.Cache.Snapshot)
	if err != nil {
		return nil, err
	}
	if snaps != nil {
		sopts = append(sopts, pricestore.WithSnapshots(snaps))
	}
	if reg != nil {
		sopts = append(sopts, pricestore.WithMetrics(reg))
	}
	store := pricestore.New(prov, cfg.Cache.CurrentTTL, sopts...)

	hist := history.NewMemoryStore(historyMaxEntries)

	eopts := []engine.Option{
		engine.WithHistory(hist),
		engine.WithLogger(logger.Named(log, "engine")),
	}
	if reg != nil {
		eopts = append(eopts, engine.WithMetrics(reg))
	}

	notifiers, err := buildNotifiers(cfg, log)
	if err != nil {
		return nil, err
	}
	if notifiers != nil {
		alerts := router.New(router.Config{
			Cooldown:     cfg.Alerts.Cooldown,
			EnabledKinds: cfg.Alerts.EnabledKinds,
		}, notifiers, logger.Named(log, "router"))
		eopts = append(eopts, engine.WithAlerts(alerts))
	}

	if cfg.Narrator.Enabled {
		llmProvider, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("building llm provider: %w", err)
		}
		eopts = append(eopts, engine.WithNarrator(
			narrator.New(llmProvider, narrator.WithLogger(logger.Named(log, "narrator")))))
	}

	return &runtime{
		cfg:     cfg,
		store:   store,
		engine:  engine.New(store, cfg, eopts...),
		history: hist,
		metrics: reg,
	}, nil
}

func buildSnapshots(cfg config.SnapshotConfig) (snapshot.Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Type {
	case "localfs":
		return snapshot.NewLocalFS(cfg.Path)
	case "s3":
		return snapshot.NewS3(snapshot.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown snapshot type: %s", cfg.Type)
	}
}

func buildNotifiers(cfg *config.Config, log *zap.Logger) (*notifier.Registry, error) {
	if len(cfg.Notifiers) == 0 {
		return nil, nil
	}

	reg := notifier.NewRegistry()
	registered := 0
	for name, ncfg := range cfg.Notifiers {
		if !ncfg.Enabled {
			continue
		}
		var n notifier.Notifier
		switch name {
		case "webhook":
			n = webhook.New(ncfg.URL, ncfg.Headers)
		case "email":
			n = email.New(ncfg.Host, ncfg.Port, ncfg.Username, ncfg.Password, ncfg.From, ncfg.To)
		case "telegram":
			n = telegram.New(ncfg.BotToken, ncfg.ChatID)
		default:
			log.Warn("skipping unknown notifier", zap.String("name", name))
			continue
		}
		if err := reg.Register(n); err != nil {
			return nil, fmt.Errorf("registering %s notifier: %w", name, err)
		}
		registered++
	}
	if registered == 0 {
		return nil, nil
	}
	return reg, nil
}
