// Package application orchestrates the analysis pipeline: fetch the
// batch, normalize, detect swaps, account PnL, build the ego-network,
// and combine the signals into the exposure score.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/leaklens/leaklens/internal/analysis/exposure"
	"github.com/leaklens/leaklens/internal/analysis/graph"
	"github.com/leaklens/leaklens/internal/analysis/income"
	"github.com/leaklens/leaklens/internal/analysis/normalize"
	"github.com/leaklens/leaklens/internal/analysis/notable"
	"github.com/leaklens/leaklens/internal/analysis/pnl"
	"github.com/leaklens/leaklens/internal/analysis/portfolio"
	"github.com/leaklens/leaklens/internal/analysis/swap"
	"github.com/leaklens/leaklens/internal/analysis/temporal"
	"github.com/leaklens/leaklens/internal/providers/helius"
	"github.com/leaklens/leaklens/internal/providers/jupiter"
	"github.com/leaklens/leaklens/internal/solana"
	"github.com/leaklens/leaklens/internal/telemetry/metrics"
)

// ErrNoTransactions marks a wallet with no on-chain history to analyze.
var ErrNoTransactions = errors.New("no transactions found for wallet")

// TransactionSource fetches the parsed transaction history.
type TransactionSource interface {
	Transactions(ctx context.Context, wallet string, limit int) ([]solana.EnhancedTransaction, error)
}

// RawTransactionSource fetches raw-ledger history over JSON-RPC, used
// when the enhanced history is unavailable.
type RawTransactionSource interface {
	RawTransactions(ctx context.Context, wallet string, limit int) ([]solana.RawTransaction, error)
}

// PortfolioSource fetches priced holdings.
type PortfolioSource interface {
	WalletPortfolio(ctx context.Context, wallet string) (*jupiter.Portfolio, error)
}

// BalanceSource fetches current token balances, used to reconstruct a
// portfolio when the portfolio API has nothing for the wallet.
type BalanceSource interface {
	WalletBalances(ctx context.Context, wallet string) (*helius.Balances, error)
}

// Sources bundles the upstream collaborators. Transactions and Prices
// are required; Raw, Portfolios, and Balances are optional fallbacks.
type Sources struct {
	Transactions TransactionSource
	Raw          RawTransactionSource
	Portfolios   PortfolioSource
	Balances     BalanceSource
	Prices       pnl.PriceSource
}

// Request is one analysis request.
type Request struct {
	Wallet string `json:"wallet"`
	Limit  int    `json:"limit,omitempty"`
	// AutomationDetected comes from the execution-profile collaborator;
	// this pipeline does not derive it.
	AutomationDetected bool `json:"automation_detected,omitempty"`
}

// Validate rejects obviously malformed requests before any fetch.
func (r *Request) Validate() error {
	if len(r.Wallet) < solana.MinAddressLen {
		return fmt.Errorf("wallet address too short: %q", r.Wallet)
	}
	if r.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// Result is the full analysis output for one wallet.
type Result struct {
	Wallet           string            `json:"wallet"`
	TransactionCount int               `json:"transaction_count"`
	Exposure         exposure.Score    `json:"surveillance_exposure"`
	Swaps            []swap.Event      `json:"swaps"`
	PnL              pnl.Report        `json:"trading_pnl"`
	Network          graph.Network     `json:"ego_network"`
	Temporal         temporal.Pattern  `json:"temporal_pattern"`
	Income           income.Sources    `json:"income_sources"`
	Notable          notable.Report    `json:"notable_transactions"`
	Portfolio        portfolio.Summary `json:"portfolio_summary"`
	Diagnostics      Diagnostics       `json:"diagnostics"`
}

// Diagnostics aggregates the per-stage counters for verification.
type Diagnostics struct {
	Normalize normalize.Diagnostics `json:"normalize"`
	Swap      swap.Diagnostics      `json:"swap"`
	Graph     graph.Diagnostics     `json:"graph"`
	PnL       pnl.Diagnostics       `json:"pnl"`
}

// Analyzer wires the providers to the analysis pipeline.
type Analyzer struct {
	sources      Sources
	scorer       *exposure.Scorer
	metrics      *metrics.Registry
	defaultLimit int
	maxLimit     int
}

// Options tunes the analyzer.
type Options struct {
	DefaultTxLimit int
	MaxTxLimit     int
}

// NewAnalyzer builds the pipeline. The optional sources and metrics may
// be nil; src.Transactions and src.Prices must not be.
func NewAnalyzer(src Sources, weights exposure.Weights, reg *metrics.Registry, opts Options) *Analyzer {
	defaultLimit := opts.DefaultTxLimit
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	maxLimit := opts.MaxTxLimit
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Analyzer{
		sources:      src,
		scorer:       exposure.NewScorer(weights),
		metrics:      reg,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Analyze runs the full pipeline for one wallet.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = a.defaultLimit
	}
	if limit > a.maxLimit {
		limit = a.maxLimit
	}

	if a.metrics != nil {
		a.metrics.ActiveAnalyses.Inc()
		defer a.metrics.ActiveAnalyses.Dec()
	}

	batch, holdings, err := a.fetch(ctx, req.Wallet, limit)
	if err != nil {
		a.countOutcome("fetch_error")
		return nil, err
	}
	if batch.Empty() {
		a.countOutcome("no_transactions")
		return nil, ErrNoTransactions
	}

	result := a.analyzeBatch(ctx, batch, holdings, req.AutomationDetected)
	a.countOutcome("ok")
	if a.metrics != nil {
		a.metrics.ExposureScore.Observe(result.Exposure.Score)
	}
	return result, nil
}

// fetch materializes the batch and portfolio concurrently. The portfolio
// is optional; its failure degrades to an empty summary.
func (a *Analyzer) fetch(ctx context.Context, wallet string, limit int) (*solana.Batch, *jupiter.Portfolio, error) {
	batch := &solana.Batch{Wallet: wallet}
	holdings := &jupiter.Portfolio{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)

	g.Go(func() error {
		start := time.Now()
		txs, err := a.sources.Transactions.Transactions(gctx, wallet, limit)
		a.observeStage("fetch_transactions", start)
		if err == nil && len(txs) > 0 {
			batch.Enhanced = txs
			return nil
		}
		if a.sources.Raw == nil {
			if err != nil {
				return fmt.Errorf("fetch transactions: %w", err)
			}
			return nil
		}
		if err != nil {
			log.Warn().Err(err).Str("wallet", wallet).Msg("enhanced history unavailable, falling back to raw fetch")
		}

		start = time.Now()
		raw, rawErr := a.sources.Raw.RawTransactions(gctx, wallet, limit)
		a.observeStage("fetch_raw", start)
		if rawErr != nil {
			// The enhanced failure is the primary one to report.
			if err != nil {
				return fmt.Errorf("fetch transactions: %w", err)
			}
			return fmt.Errorf("fetch raw transactions: %w", rawErr)
		}
		batch.Raw = raw
		return nil
	})

	if a.sources.Portfolios != nil || a.sources.Balances != nil {
		g.Go(func() error {
			if a.sources.Portfolios != nil {
				start := time.Now()
				p, err := a.sources.Portfolios.WalletPortfolio(gctx, wallet)
				a.observeStage("fetch_portfolio", start)
				if err == nil && p != nil && len(p.Tokens) > 0 {
					holdings = p
					return nil
				}
				if err != nil {
					log.Warn().Err(err).Str("wallet", wallet).Msg("portfolio fetch failed, trying balances")
				}
			}
			if a.sources.Balances == nil {
				return nil
			}

			start := time.Now()
			bal, err := a.sources.Balances.WalletBalances(gctx, wallet)
			a.observeStage("fetch_balances", start)
			if err != nil {
				log.Warn().Err(err).Str("wallet", wallet).Msg("balance fetch failed, continuing without holdings")
				return nil
			}
			holdings = a.balancesPortfolio(gctx, bal)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return batch, holdings, nil
}

// balancesPortfolio reconstructs priced holdings from raw token
// balances. Stables price 1:1; everything else goes through the price
// source, with unpriced tokens kept at zero value.
func (a *Analyzer) balancesPortfolio(ctx context.Context, bal *helius.Balances) *jupiter.Portfolio {
	if bal == nil {
		return &jupiter.Portfolio{}
	}
	p := &jupiter.Portfolio{}

	if sol := bal.NativeBalance.SOL(); sol > 0 {
		usd := bal.NativeBalance.USDValue
		if usd == 0 {
			if price, ok := a.sources.Prices.PriceAt(ctx, solana.WSOLMint, 0); ok {
				usd = sol * price
			}
		}
		p.Tokens = append(p.Tokens, jupiter.PortfolioToken{
			Symbol: "SOL", Mint: solana.WSOLMint, Amount: sol, USDValue: usd,
		})
		p.TotalValue += usd
	}

	for _, t := range bal.Tokens {
		amount := t.UIAmount()
		if amount <= 0 {
			continue
		}
		usd := 0.0
		if solana.IsStableMint(t.Mint) {
			usd = amount
		} else if price, ok := a.sources.Prices.PriceAt(ctx, t.Mint, 0); ok {
			usd = amount * price
		}
		p.Tokens = append(p.Tokens, jupiter.PortfolioToken{
			Symbol: symbolForMint(t.Mint), Mint: t.Mint, Amount: amount, USDValue: usd,
		})
		p.TotalValue += usd
	}
	return p
}

func symbolForMint(mint string) string {
	switch mint {
	case solana.USDCMint:
		return "USDC"
	case solana.USDTMint:
		return "USDT"
	case solana.WSOLMint:
		return "SOL"
	}
	return ""
}

// analyzeBatch runs the pure pipeline over a materialized batch.
func (a *Analyzer) analyzeBatch(ctx context.Context, batch *solana.Batch, holdings *jupiter.Portfolio, automation bool) *Result {
	wallet := batch.Wallet

	start := time.Now()
	results, normDiag := normalize.Batch(batch)
	a.observeStage("normalize", start)

	start = time.Now()
	swaps, swapDiag := swap.Detect(results)
	a.observeStage("swap_detect", start)

	start = time.Now()
	builder := graph.NewBuilder(wallet)
	builder.Scan(results)
	memeActive := graph.MemeActivity(results)
	network := builder.Build(memeActive)
	a.observeStage("ego_network", start)

	start = time.Now()
	report := pnl.NewLedger(a.sources.Prices).Process(ctx, swaps)
	a.observeStage("pnl", start)

	pattern := temporal.Build(results)
	incomeSources := income.FromEnhanced(wallet, batch.Enhanced)
	notableTxs := notable.FromEnhanced(wallet, batch.Enhanced)
	summary := summarizeHoldings(holdings)

	signals := exposure.Signals{
		SwapCount:              len(swaps),
		MemecoinPct:            summary.MemePct,
		Hourly:                 pattern.Hourly[:],
		ActiveHours:            pattern.ActiveHours(),
		NormalizedEntropy:      pattern.NormalizedEntropy(),
		RepeatedCounterparties: builder.RepeatedCount(),
		AutomationDetected:     automation,
		StableIncomeDetected:   incomeSources.StableDetected(),
		TopConcentrationPct:    summary.TopConcentration,
	}
	score := a.scorer.Compute(signals)

	return &Result{
		Wallet:           wallet,
		TransactionCount: batch.Len(),
		Exposure:         score,
		Swaps:            swaps,
		PnL:              report,
		Network:          network,
		Temporal:         pattern,
		Income:           incomeSources,
		Notable:          notableTxs,
		Portfolio:        summary,
		Diagnostics: Diagnostics{
			Normalize: normDiag,
			Swap:      swapDiag,
			Graph:     network.Diagnostics,
			PnL:       report.Diagnostics,
		},
	}
}

func summarizeHoldings(holdings *jupiter.Portfolio) portfolio.Summary {
	if holdings == nil {
		return portfolio.Summary{}
	}
	tokens := make([]portfolio.Token, 0, len(holdings.Tokens))
	for _, t := range holdings.Tokens {
		tokens = append(tokens, portfolio.Token{
			Symbol:   t.Symbol,
			Mint:     t.Mint,
			Amount:   t.Amount,
			USDValue: t.USDValue,
		})
	}
	return portfolio.Summarize(tokens, holdings.TotalValue)
}

func (a *Analyzer) observeStage(stage string, start time.Time) {
	if a.metrics != nil {
		a.metrics.ObserveStage(stage, time.Since(start))
	}
}

func (a *Analyzer) countOutcome(outcome string) {
	if a.metrics != nil {
		a.metrics.AnalysisTotal.WithLabelValues(outcome).Inc()
	}
}

// compile-time checks that the real providers satisfy the source
// interfaces.
var (
	_ TransactionSource    = (*helius.Client)(nil)
	_ RawTransactionSource = (*helius.Client)(nil)
	_ BalanceSource        = (*helius.Client)(nil)
	_ PortfolioSource      = (*jupiter.Client)(nil)
)
