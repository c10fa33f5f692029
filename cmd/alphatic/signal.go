package main

import (
	"fmt"
	"strings"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/engine"
	"github.com/alphatic/alphatic/internal/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var signalCmd = &cobra.Command{
	Use:   "signal <ticker> [ticker...]",
	Short: "Evaluate tickers and print the dual-signal verdict",
	Long: `Evaluate each ticker with both signal pipelines over the configured
lookback window and print the scores, the agreement verdict, and the
market regime label.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSignal,
}

func init() {
	rootCmd.AddCommand(signalCmd)
}

func runSignal(cmd *cobra.Command, args []string) error {
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
	cycle := uuid.NewString()

	var failed int
	for _, ticker := range args {
		eval, err := rt.engine.Evaluate(ctx, strings.ToUpper(ticker), engine.EvalContext{
			CallSite: engine.CallSitePortfolio,
			CycleID:  cycle,
		})
		if err != nil {
			log.Error("evaluation failed", zap.String("ticker", ticker), zap.Error(err))
			failed++
			continue
		}
		printEvaluation(eval)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tickers failed", failed, len(args))
	}
	return nil
}

func printEvaluation(eval core.Evaluation) {
	fmt.Printf("=== %s ===\n", eval.Ticker)
	fmt.Printf("Window:    %s to %s\n",
		eval.Window.Start.Format("2006-01-02"), eval.Window.End.Format("2006-01-02"))

	t := eval.Technical
	fmt.Printf("Technical: %s (total %+.2f, confidence %.2f)\n", t.Action, t.Total, t.Confidence)
	fmt.Printf("           trend %+.2f  momentum %+.2f  extremes %+.2f\n", t.Trend, t.Momentum, t.Extreme)
	for _, note := range t.Notes {
		fmt.Printf("           %s\n", note)
	}

	a := eval.Adaptive
	if a.Available {
		fmt.Printf("Adaptive:  %s (total %+.2f, confidence %.2f)\n", a.Action, a.Total, a.Confidence)
		fmt.Printf("           filtered %.2f  predicted %.2f (std %.2f)\n",
			a.FilteredPrice, a.Prediction, a.PredictionStd)
	} else {
		fmt.Printf("Adaptive:  unavailable\n")
		for _, note := range a.Notes {
			fmt.Printf("           %s\n", note)
		}
	}

	fmt.Printf("Verdict:   %s\n", eval.Verdict)
	fmt.Printf("Regime:    %s (return %+.1f%%, vol %.1f%%, median vol %.1f%%)\n",
		eval.Regime.State,
		eval.Regime.AnnualizedReturn*100,
		eval.Regime.AnnualizedVol*100,
		eval.Regime.MedianVol*100)

	if eval.Narrative != "" {
		fmt.Printf("Narrative: %s\n", eval.Narrative)
	}
	fmt.Println()
}
