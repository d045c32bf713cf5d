package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leaklens/leaklens/internal/application"
	"github.com/leaklens/leaklens/internal/config"
	"github.com/leaklens/leaklens/internal/telemetry/metrics"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <wallet>",
		Short: "Analyze one wallet and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	cmd.Flags().Int("limit", 0, "Maximum transactions to fetch (0 = config default)")
	cmd.Flags().Duration("timeout", 2*time.Minute, "Overall analysis timeout")
	cmd.Flags().Bool("automation", false, "Mark the wallet as showing automated execution")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	weights, err := loadWeights(cfg.Analysis.WeightsPath)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	deps := buildDependencies(cfg, registry)
	defer deps.close()

	analyzer := application.NewAnalyzer(
		deps.sources(),
		weights, registry,
		application.Options{
			DefaultTxLimit: cfg.Analysis.DefaultTxLimit,
			MaxTxLimit:     cfg.Analysis.MaxTxLimit,
		},
	)

	limit, _ := cmd.Flags().GetInt("limit")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	automation, _ := cmd.Flags().GetBool("automation")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result, err := analyzer.Analyze(ctx, application.Request{
		Wallet:             args[0],
		Limit:              limit,
		AutomationDetected: automation,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
