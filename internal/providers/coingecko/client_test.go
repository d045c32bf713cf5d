package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaklens/leaklens/internal/cache"
)

func newTestClient(baseURL string, c cache.Cache) *Client {
	return New(Config{BaseURL: baseURL, RPS: 1000, Burst: 100}, c, nil)
}

func TestSOLPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		require.Equal(t, "solana", r.URL.Query().Get("ids"))
		fmt.Fprint(w, `{"solana":{"usd":152.34}}`)
	}))
	defer srv.Close()

	price, err := newTestClient(srv.URL, nil).SOLPrice(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 152.34, price, 1e-9)
}

func TestSOLPriceCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		fmt.Fprint(w, `{"solana":{"usd":150}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, cache.NewMemory())
	for i := 0; i < 3; i++ {
		price, err := client.SOLPrice(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 150, price, 1e-9)
	}
	assert.Equal(t, 1, calls)
}

func TestSOLPriceAtDayBuckets(t *testing.T) {
	var dates []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/solana/history", r.URL.Path)
		dates = append(dates, r.URL.Query().Get("date"))
		fmt.Fprint(w, `{"market_data":{"current_price":{"usd":140}}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, cache.NewMemory())
	// 2023-11-15 00:30 and 23:30 UTC share a day; the next day does not.
	noon := time.Date(2023, 11, 15, 0, 30, 0, 0, time.UTC).Unix()
	evening := time.Date(2023, 11, 15, 23, 30, 0, 0, time.UTC).Unix()
	next := time.Date(2023, 11, 16, 1, 0, 0, 0, time.UTC).Unix()

	for _, ts := range []int64{noon, evening, next} {
		price, err := client.SOLPriceAt(context.Background(), ts)
		require.NoError(t, err)
		assert.InDelta(t, 140, price, 1e-9)
	}
	assert.Equal(t, []string{"15-11-2023", "16-11-2023"}, dates)
}

func TestSOLPriceMissingValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).SOLPrice(context.Background())
	assert.Error(t, err)
}

func TestSOLPriceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).SOLPrice(context.Background())
	assert.Error(t, err)
}
