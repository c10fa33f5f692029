package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveTickers  []string
	serveInterval time.Duration
	serveAddr     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run periodic scans and expose Prometheus metrics",
	Long: `Scan the given tickers on a fixed interval and serve engine metrics
over HTTP until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSliceVar(&serveTickers, "tickers", nil, "tickers to scan periodically (required)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 1*time.Hour, "scan interval")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":9090", "metrics listen address")
	serveCmd.MarkFlagRequired("tickers")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return err
	}

	tickers := make([]string, len(serveTickers))
	for i, t := range serveTickers {
		tickers[i] = strings.ToUpper(t)
	}

	log.Info("alphatic starting",
		zap.Strings("tickers", tickers),
		zap.Duration("interval", serveInterval),
		zap.String("addr", serveAddr),
	)

	var server *http.Server
	if rt.metrics != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(rt.metrics.Registry, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: serveAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	runScanCycle(ctx, rt, tickers, log)

	ticker := time.NewTicker(serveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alphatic shutting down")
			if server != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer shutdownCancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutting down metrics server: %w", err)
				}
			}
			return nil
		case <-ticker.C:
			runScanCycle(ctx, rt, tickers, log)
		}
	}
}

func runScanCycle(ctx context.Context, rt *runtime, tickers []string, log *zap.Logger) {
	evals, err := rt.engine.Scan(ctx, tickers)
	if err != nil {
		log.Error("scan cycle failed", zap.Error(err))
		return
	}
	conflicts := 0
	for _, eval := range evals {
		if eval.Verdict == core.VerdictConflict {
			conflicts++
		}
	}
	log.Info("scan cycle complete",
		zap.Int("evaluated", len(evals)),
		zap.Int("conflicts", conflicts),
	)
}
