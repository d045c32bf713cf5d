package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const version = "v2.0.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "leaklens",
		Short:   "Wallet surveillance-exposure analyzer for Solana",
		Version: version,
		Long: `LeakLens quantifies how easily a Solana wallet can be profiled from
its public on-chain history: swap behavior, trading PnL, counterparty
graph, and timing patterns combine into a 0-100 exposure score.`,
	}

	addGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to YAML config file")
	flags.String("log-level", "info", "Log level (trace|debug|info|warn|error)")
}

func setupLogging(cmd *cobra.Command) {
	level, _ := cmd.Flags().GetString("log-level")
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
