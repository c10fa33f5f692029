package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "alphatic",
	Short: "Alphatic - dual-signal market decision engine",
	Long: `Alphatic evaluates tickers with two independent signal pipelines
(a technical indicator scorer and an adaptive state-space estimator),
classifies their agreement, and labels the prevailing market regime.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
