// Package jupiter fetches current token prices and portfolio holdings
// from the Jupiter APIs.
package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/leaklens/leaklens/internal/cache"
	"github.com/leaklens/leaklens/internal/net/guard"
	"github.com/leaklens/leaklens/internal/solana"
	"github.com/leaklens/leaklens/internal/telemetry/metrics"
)

const (
	defaultPriceURL     = "https://price.jup.ag"
	defaultPortfolioURL = "https://portfolio.jup.ag"
	userAgent           = "LeakLens/1.0"

	// priceChunk keeps the ids query parameter within upstream limits.
	priceChunk = 20
	priceTTL   = 5 * time.Minute
)

// Config tunes the client.
type Config struct {
	PriceURL     string
	PortfolioURL string
	Timeout      time.Duration
	RPS          float64
	Burst        int
}

// Client is a Jupiter API client with a guarded transport and a price
// cache in front.
type Client struct {
	priceURL     string
	portfolioURL string
	guard        *guard.Transport
	http         *http.Client
	cache        cache.Cache
	metrics      *metrics.Registry
}

// New creates a client. cache and metrics may be nil.
func New(cfg Config, c cache.Cache, reg *metrics.Registry) *Client {
	priceURL := cfg.PriceURL
	if priceURL == "" {
		priceURL = defaultPriceURL
	}
	portfolioURL := cfg.PortfolioURL
	if portfolioURL == "" {
		portfolioURL = defaultPortfolioURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RPS
	if rps == 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 3
	}
	transport := guard.NewTransport(guard.Config{
		Provider: "jupiter",
		RPS:      rps,
		Burst:    burst,
	}, nil)
	return &Client{
		priceURL:     priceURL,
		portfolioURL: portfolioURL,
		guard:        transport,
		http:         &http.Client{Transport: transport, Timeout: timeout},
		cache:        c,
		metrics:      reg,
	}
}

// Healthy reports whether the guarded transport is accepting requests.
func (c *Client) Healthy() error { return c.guard.Healthy() }

type priceResponse struct {
	Data map[string]struct {
		Price float64 `json:"price"`
	} `json:"data"`
}

// Prices fetches current USD prices for the given mints. Truncated
// addresses are skipped; missing prices are absent from the result.
func (c *Client) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	valid := make([]string, 0, len(mints))
	for _, m := range mints {
		if len(strings.TrimSpace(m)) >= solana.MinAddressLen {
			valid = append(valid, strings.TrimSpace(m))
		}
	}
	sort.Strings(valid)

	out := make(map[string]float64, len(valid))
	var uncached []string
	for _, m := range valid {
		if price, ok := c.cachedPrice(ctx, m); ok {
			out[m] = price
		} else {
			uncached = append(uncached, m)
		}
	}

	for i := 0; i < len(uncached); i += priceChunk {
		end := i + priceChunk
		if end > len(uncached) {
			end = len(uncached)
		}
		batch := uncached[i:end]

		endpoint := fmt.Sprintf("%s/v4/price?ids=%s", c.priceURL, url.QueryEscape(strings.Join(batch, ",")))
		var decoded priceResponse
		if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		for mint, rec := range decoded.Data {
			if rec.Price > 0 {
				out[mint] = rec.Price
				c.storePrice(ctx, mint, rec.Price)
			}
		}
	}
	return out, nil
}

// Portfolio is the priced holdings payload.
type Portfolio struct {
	Tokens     []PortfolioToken `json:"tokens"`
	TotalValue float64          `json:"totalValue"`
}

// PortfolioToken is one priced holding.
type PortfolioToken struct {
	Symbol   string  `json:"symbol"`
	Mint     string  `json:"mint,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	USDValue float64 `json:"usdValue"`
}

// WalletPortfolio fetches the priced holdings for wallet. A missing
// portfolio is returned empty rather than as an error.
func (c *Client) WalletPortfolio(ctx context.Context, wallet string) (*Portfolio, error) {
	endpoint := fmt.Sprintf("%s/v1/portfolio/%s", c.portfolioURL, url.PathEscape(wallet))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.observe(err, start)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &Portfolio{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode < 500 {
			return &Portfolio{}, nil
		}
		return nil, fmt.Errorf("jupiter: portfolio status %d", resp.StatusCode)
	}

	var portfolio Portfolio
	if err := json.NewDecoder(resp.Body).Decode(&portfolio); err != nil {
		return &Portfolio{}, nil
	}
	return &portfolio, nil
}

func (c *Client) cachedPrice(ctx context.Context, mint string) (float64, bool) {
	if c.cache == nil {
		return 0, false
	}
	raw, ok := c.cache.Get(ctx, "jup:price:"+mint)
	if !ok {
		c.countCache(false)
		return 0, false
	}
	var price float64
	if err := json.Unmarshal(raw, &price); err != nil || price <= 0 {
		return 0, false
	}
	c.countCache(true)
	return price, true
}

func (c *Client) storePrice(ctx context.Context, mint string, price float64) {
	if c.cache == nil {
		return
	}
	raw, _ := json.Marshal(price)
	c.cache.Set(ctx, "jup:price:"+mint, raw, priceTTL)
}

func (c *Client) countCache(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.WithLabelValues("jupiter_price").Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues("jupiter_price").Inc()
	}
}

func (c *Client) observe(err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveProvider("jupiter", status, time.Since(start))
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.observe(err, start)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("jupiter: unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
