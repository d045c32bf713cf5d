package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/leaklens/leaklens/internal/analysis/exposure"
	"github.com/leaklens/leaklens/internal/application"
	"github.com/leaklens/leaklens/internal/cache"
	"github.com/leaklens/leaklens/internal/config"
	"github.com/leaklens/leaklens/internal/config/exposureconf"
	httpapi "github.com/leaklens/leaklens/internal/interfaces/http"
	"github.com/leaklens/leaklens/internal/providers/coingecko"
	"github.com/leaklens/leaklens/internal/providers/helius"
	"github.com/leaklens/leaklens/internal/providers/jupiter"
	"github.com/leaklens/leaklens/internal/providers/pricing"
	"github.com/leaklens/leaklens/internal/telemetry/metrics"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis HTTP server",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
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
	promRegistry := prometheus.NewRegistry()
	if err := registry.Register(promRegistry); err != nil {
		return err
	}

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

	checks := map[string]httpapi.HealthChecker{
		"helius":    func(context.Context) error { return deps.helius.Healthy() },
		"jupiter":   func(context.Context) error { return deps.jupiter.Healthy() },
		"coingecko": func(context.Context) error { return deps.coingecko.Healthy() },
	}
	if deps.redis != nil {
		checks["redis"] = deps.redis.Ping
	}

	handlers := httpapi.NewHandlers(analyzer, checks)
	server := httpapi.NewServer(cfg.Server, handlers, promRegistry)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

type dependencies struct {
	helius    *helius.Client
	jupiter   *jupiter.Client
	coingecko *coingecko.Client
	prices    *pricing.Source
	redis     *cache.Redis
}

// sources assembles the analyzer's collaborators: enhanced history with
// the raw-ledger fallback, the portfolio API with the balances fallback.
func (d *dependencies) sources() application.Sources {
	return application.Sources{
		Transactions: d.helius,
		Raw:          d.helius,
		Portfolios:   d.jupiter,
		Balances:     d.helius,
		Prices:       d.prices,
	}
}

func (d *dependencies) close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis")
		}
	}
}

func buildDependencies(cfg *config.Config, registry *metrics.Registry) *dependencies {
	var redisTier *cache.Redis
	if cfg.Redis.Addr != "" {
		redisTier = cache.NewRedis(cfg.Redis.Addr, cfg.Redis.DB)
	}
	var shared cache.Cache
	if redisTier != nil {
		shared = redisTier
	}
	priceCache := cache.NewLayered(cache.NewMemory(), shared)

	heliusClient := helius.New(helius.Config{
		BaseURL: cfg.Providers.Helius.BaseURL,
		RPCURL:  cfg.Providers.Helius.RPCURL,
		APIKey:  cfg.Providers.Helius.APIKey,
		Timeout: cfg.Providers.Helius.Timeout(),
		RPS:     cfg.Providers.Helius.RPS,
		Burst:   cfg.Providers.Helius.Burst,
	}, registry)

	jupiterClient := jupiter.New(jupiter.Config{
		PriceURL: cfg.Providers.Jupiter.BaseURL,
		Timeout:  cfg.Providers.Jupiter.Timeout(),
		RPS:      cfg.Providers.Jupiter.RPS,
		Burst:    cfg.Providers.Jupiter.Burst,
	}, priceCache, registry)

	coingeckoClient := coingecko.New(coingecko.Config{
		BaseURL: cfg.Providers.CoinGecko.BaseURL,
		Timeout: cfg.Providers.CoinGecko.Timeout(),
		RPS:     cfg.Providers.CoinGecko.RPS,
		Burst:   cfg.Providers.CoinGecko.Burst,
	}, priceCache, registry)

	return &dependencies{
		helius:    heliusClient,
		jupiter:   jupiterClient,
		coingecko: coingeckoClient,
		prices:    pricing.NewSource(coingeckoClient, jupiterClient),
		redis:     redisTier,
	}
}

func loadWeights(path string) (exposure.Weights, error) {
	loader := exposureconf.NewLoader()
	if path != "" {
		if err := loader.LoadFromFile(path); err != nil {
			return exposure.Weights{}, err
		}
	} else if err := loader.LoadDefault(); err != nil {
		return exposure.Weights{}, err
	}
	return loader.Weights()
}
