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
	Use:   "sibyl",
	Short: "Sibyl - crypto trading signal engine",
	Long: `Sibyl analyzes cryptocurrency price and volume data, trains a price
projection model, and produces BUY/SELL/HOLD recommendations with
risk-managed entry, stop, and target levels.`,
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
