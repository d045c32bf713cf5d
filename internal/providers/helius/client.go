// Package helius fetches parsed transaction history and token balances
// from the Helius indexer API.
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leaklens/leaklens/internal/net/guard"
	"github.com/leaklens/leaklens/internal/solana"
	"github.com/leaklens/leaklens/internal/telemetry/metrics"
)

const (
	defaultBaseURL = "https://api.helius.xyz"
	defaultRPCURL  = "https://mainnet.helius-rpc.com"
	// pageLimit is the per-request cap imposed upstream.
	pageLimit = 100
)

// Config tunes the client.
type Config struct {
	BaseURL string
	RPCURL  string
	APIKey  string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Client is a Helius API client with a guarded transport.
type Client struct {
	baseURL string
	rpcURL  string
	apiKey  string
	guard   *guard.Transport
	http    *http.Client
	metrics *metrics.Registry
}

// New creates a client. metrics may be nil.
func New(cfg Config, reg *metrics.Registry) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = defaultRPCURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	rps := cfg.RPS
	if rps == 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 5
	}
	transport := guard.NewTransport(guard.Config{
		Provider: "helius",
		RPS:      rps,
		Burst:    burst,
	}, nil)
	return &Client{
		baseURL: baseURL,
		rpcURL:  rpcURL,
		apiKey:  cfg.APIKey,
		guard:   transport,
		http:    &http.Client{Transport: transport, Timeout: timeout},
		metrics: reg,
	}
}

// Healthy reports whether the guarded transport is accepting requests.
func (c *Client) Healthy() error { return c.guard.Healthy() }

// Transactions fetches up to limit parsed transactions for wallet,
// paginating with the before cursor until upstream runs dry.
func (c *Client) Transactions(ctx context.Context, wallet string, limit int) ([]solana.EnhancedTransaction, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("helius: missing API key")
	}
	if limit <= 0 {
		limit = pageLimit
	}

	var all []solana.EnhancedTransaction
	before := ""
	for len(all) < limit {
		pageSize := limit - len(all)
		if pageSize > pageLimit {
			pageSize = pageLimit
		}

		page, err := c.transactionsPage(ctx, wallet, pageSize, before)
		if err != nil {
			if len(all) > 0 {
				// A partial history is still analyzable.
				log.Warn().Err(err).Int("fetched", len(all)).Msg("helius pagination stopped early")
				return all, nil
			}
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
		before = page[len(page)-1].Sig()
		if before == "" {
			break
		}
	}
	return all, nil
}

func (c *Client) transactionsPage(ctx context.Context, wallet string, limit int, before string) ([]solana.EnhancedTransaction, error) {
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions", c.baseURL, url.PathEscape(wallet))
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("limit", fmt.Sprint(limit))
	if before != "" {
		params.Set("before", before)
	}

	var page []solana.EnhancedTransaction
	if err := c.getJSON(ctx, endpoint+"?"+params.Encode(), &page); err != nil {
		return nil, err
	}
	return page, nil
}

// RawTransactions fetches raw-ledger transactions over JSON-RPC for
// wallets whose enhanced history is unavailable: one signature listing,
// then one getTransaction call per signature.
func (c *Client) RawTransactions(ctx context.Context, wallet string, limit int) ([]solana.RawTransaction, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("helius: missing API key")
	}
	if limit <= 0 {
		limit = pageLimit
	}

	var sigs []struct {
		Signature string `json:"signature"`
	}
	params := []any{wallet, map[string]any{"limit": limit}}
	if err := c.rpcCall(ctx, "getSignaturesForAddress", params, &sigs); err != nil {
		return nil, err
	}

	txs := make([]solana.RawTransaction, 0, len(sigs))
	for _, sig := range sigs {
		var tx solana.RawTransaction
		params := []any{sig.Signature, map[string]any{
			"encoding":                           "json",
			"maximumSupportedTransactionVersion": 0,
		}}
		if err := c.rpcCall(ctx, "getTransaction", params, &tx); err != nil {
			if len(txs) > 0 {
				// A partial history is still analyzable.
				log.Warn().Err(err).Int("fetched", len(txs)).Msg("helius raw fetch stopped early")
				return txs, nil
			}
			return nil, err
		}
		if tx.Meta == nil && tx.BlockTime == 0 {
			// Null result: the signature was pruned upstream.
			continue
		}
		if tx.Signature == "" {
			tx.Signature = sig.Signature
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *Client) rpcCall(ctx context.Context, method string, params []any, out any) error {
	payload, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Method  string `json:"method"`
		Params  []any  `json:"params"`
	}{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	endpoint := c.rpcURL + "/?api-key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.ObserveProvider("helius", status, time.Since(start))
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("helius: rpc %s returned status %d: %s", method, resp.StatusCode, body)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("helius: rpc %s decode: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("helius: rpc %s failed (%d): %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if len(envelope.Result) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

// Balances is the wallet balances payload.
type Balances struct {
	Tokens        []TokenBalance `json:"tokens"`
	NativeBalance NativeBalance  `json:"nativeBalance"`
}

// TokenBalance is one token account balance.
type TokenBalance struct {
	Mint     string  `json:"mint"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

// UIAmount scales the raw amount by decimals.
func (t TokenBalance) UIAmount() float64 {
	v := t.Amount
	for i := 0; i < t.Decimals; i++ {
		v /= 10
	}
	return v
}

// NativeBalance decodes both the bare-lamports and object spellings.
type NativeBalance struct {
	Lamports float64
	USDValue float64
}

// UnmarshalJSON accepts a number or {lamports, usdValue, ...}.
func (n *NativeBalance) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		n.Lamports = num
		return nil
	}
	var obj struct {
		Lamports float64 `json:"lamports"`
		USDValue float64 `json:"usdValue"`
		Value    float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	n.Lamports = obj.Lamports
	if obj.USDValue > 0 {
		n.USDValue = obj.USDValue
	} else {
		n.USDValue = obj.Value
	}
	return nil
}

// SOL returns the native balance in SOL.
func (n NativeBalance) SOL() float64 { return n.Lamports / solana.LamportsPerSOL }

// WalletBalances fetches current token balances for wallet.
func (c *Client) WalletBalances(ctx context.Context, wallet string) (*Balances, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("helius: missing API key")
	}
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/balances?api-key=%s",
		c.baseURL, url.PathEscape(wallet), url.QueryEscape(c.apiKey))

	var balances Balances
	if err := c.getJSON(ctx, endpoint, &balances); err != nil {
		return nil, err
	}
	return &balances, nil
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
		c.metrics.ObserveProvider("helius", status, time.Since(start))
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("helius: unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
