package main

import (
	"fmt"
	"strings"

	"github.com/alphatic/alphatic/internal/engine"
	"github.com/alphatic/alphatic/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanVerify bool

var scanCmd = &cobra.Command{
	Use:   "scan <ticker> [ticker...]",
	Short: "Scan a ticker universe in one shared data pass",
	Long: `Fetch one price table covering every ticker, evaluate them all in
parallel, and print a one-line summary per ticker. With --verify, each
ticker is re-evaluated through the single-ticker path afterwards and the
two result sets are cross-checked for divergence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanVerify, "verify", false, "re-evaluate each ticker individually and cross-check results")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
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

	ctx := cmd.Context()
	tickers := make([]string, len(args))
	for i, t := range args {
		tickers[i] = strings.ToUpper(t)
	}

	evals, err := rt.engine.Scan(ctx, tickers)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("=== Scan: %d of %d tickers evaluated ===\n", len(evals), len(tickers))
	for _, eval := range evals {
		adaptive := "n/a"
		if eval.Adaptive.Available {
			adaptive = string(eval.Adaptive.Action)
		}
		fmt.Printf("%-8s technical=%-4s adaptive=%-4s verdict=%-8s regime=%s\n",
			eval.Ticker, eval.Technical.Action, adaptive, eval.Verdict, eval.Regime.State)
	}

	if !scanVerify || len(evals) == 0 {
		return nil
	}

	cycle := evals[0].CycleID
	for _, eval := range evals {
		if _, err := rt.engine.Evaluate(ctx, eval.Ticker, engine.EvalContext{
			CallSite: engine.CallSitePortfolio,
			CycleID:  cycle,
		}); err != nil {
			log.Error("verification evaluation failed",
				zap.String("ticker", eval.Ticker), zap.Error(err))
		}
	}

	mismatches, err := rt.engine.CrossCheck(ctx, cycle)
	if err != nil {
		return fmt.Errorf("cross-check failed: %w", err)
	}

	fmt.Println()
	if len(mismatches) == 0 {
		fmt.Println("Cross-check: all tickers consistent across call sites")
		return nil
	}
	fmt.Printf("Cross-check: %d mismatch(es)\n", len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("  %-8s %s\n", m.Ticker, m.Detail)
	}
	return fmt.Errorf("%d consistency mismatches detected", len(mismatches))
}
