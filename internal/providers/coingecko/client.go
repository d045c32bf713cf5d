// Package coingecko fetches current and historical SOL prices. Only SOL
// has a usable historical series; everything else prices through Jupiter.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/leaklens/leaklens/internal/cache"
	"github.com/leaklens/leaklens/internal/net/guard"
	"github.com/leaklens/leaklens/internal/telemetry/metrics"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"

	currentTTL = 5 * time.Minute
	// historicalTTL is long because a past day's close never changes.
	historicalTTL = 24 * time.Hour
)

// Config tunes the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Client is a CoinGecko API client with a guarded transport and cached
// lookups.
type Client struct {
	baseURL string
	guard   *guard.Transport
	http    *http.Client
	cache   cache.Cache
	metrics *metrics.Registry
}

// New creates a client. cache and metrics may be nil.
func New(cfg Config, c cache.Cache, reg *metrics.Registry) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RPS
	if rps == 0 {
		rps = 0.5 // free tier
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 2
	}
	transport := guard.NewTransport(guard.Config{
		Provider: "coingecko",
		RPS:      rps,
		Burst:    burst,
	}, nil)
	return &Client{
		baseURL: baseURL,
		guard:   transport,
		http:    &http.Client{Transport: transport, Timeout: timeout},
		cache:   c,
		metrics: reg,
	}
}

// Healthy reports whether the guarded transport is accepting requests.
func (c *Client) Healthy() error { return c.guard.Healthy() }

// SOLPrice returns the current SOL/USD price.
func (c *Client) SOLPrice(ctx context.Context) (float64, error) {
	if price, ok := c.cached(ctx, "cg:sol:now"); ok {
		return price, nil
	}

	endpoint := c.baseURL + "/simple/price?ids=solana&vs_currencies=usd"
	var decoded map[string]map[string]float64
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return 0, err
	}
	price := decoded["solana"]["usd"]
	if price <= 0 {
		return 0, fmt.Errorf("coingecko: no current SOL price")
	}
	c.store(ctx, "cg:sol:now", price, currentTTL)
	return price, nil
}

// SOLPriceAt returns the SOL/USD price for the UTC day containing
// unixtime. Day granularity matches what upstream provides for free.
func (c *Client) SOLPriceAt(ctx context.Context, unixtime int64) (float64, error) {
	day := time.Unix(unixtime, 0).UTC().Format("02-01-2006")
	key := "cg:sol:" + day
	if price, ok := c.cached(ctx, key); ok {
		return price, nil
	}

	endpoint := fmt.Sprintf("%s/coins/solana/history?date=%s", c.baseURL, url.QueryEscape(day))
	var decoded struct {
		MarketData struct {
			CurrentPrice map[string]float64 `json:"current_price"`
		} `json:"market_data"`
	}
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return 0, err
	}
	price := decoded.MarketData.CurrentPrice["usd"]
	if price <= 0 {
		return 0, fmt.Errorf("coingecko: no SOL price for %s", day)
	}
	c.store(ctx, key, price, historicalTTL)
	return price, nil
}

func (c *Client) cached(ctx context.Context, key string) (float64, bool) {
	if c.cache == nil {
		return 0, false
	}
	raw, ok := c.cache.Get(ctx, key)
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

func (c *Client) store(ctx context.Context, key string, price float64, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	raw, _ := json.Marshal(price)
	c.cache.Set(ctx, key, raw, ttl)
}

func (c *Client) countCache(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.WithLabelValues("coingecko_price").Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues("coingecko_price").Inc()
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.ObserveProvider("coingecko", status, time.Since(start))
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("coingecko: unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
