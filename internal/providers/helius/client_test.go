package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaklens/leaklens/internal/solana"
)

const testWallet = "Waln1111111111111111111111111111111111111111"

func newTestClient(baseURL string) *Client {
	return New(Config{BaseURL: baseURL, APIKey: "test-key", RPS: 1000, Burst: 100}, nil)
}

func txPage(start, count int) []solana.EnhancedTransaction {
	page := make([]solana.EnhancedTransaction, count)
	for i := range page {
		page[i] = solana.EnhancedTransaction{
			Signature: fmt.Sprintf("sig-%04d", start+i),
			Timestamp: int64(1700000000 - start - i),
		}
	}
	return page
}

func TestTransactionsPaginates(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RawQuery)
		require.Equal(t, "/v0/addresses/"+testWallet+"/transactions", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		switch r.URL.Query().Get("before") {
		case "":
			json.NewEncoder(w).Encode(txPage(0, 100))
		case "sig-0099":
			json.NewEncoder(w).Encode(txPage(100, 50))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("before"))
		}
	}))
	defer srv.Close()

	txs, err := newTestClient(srv.URL).Transactions(context.Background(), testWallet, 150)
	require.NoError(t, err)
	assert.Len(t, txs, 150)
	assert.Equal(t, "sig-0000", txs[0].Signature)
	assert.Equal(t, "sig-0149", txs[149].Signature)
	assert.Len(t, requests, 2)
}

func TestTransactionsStopsOnShortPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(txPage(0, 7))
	}))
	defer srv.Close()

	txs, err := newTestClient(srv.URL).Transactions(context.Background(), testWallet, 150)
	require.NoError(t, err)
	assert.Len(t, txs, 7)
}

func TestTransactionsPartialHistoryOnLaterPageFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(txPage(0, 100))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	txs, err := newTestClient(srv.URL).Transactions(context.Background(), testWallet, 250)
	require.NoError(t, err)
	assert.Len(t, txs, 100)
}

func TestTransactionsFirstPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad key"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transactions(context.Background(), testWallet, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTransactionsRequiresAPIKey(t *testing.T) {
	client := New(Config{BaseURL: "http://unused"}, nil)
	_, err := client.Transactions(context.Background(), testWallet, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func newRPCTestClient(rpcURL string) *Client {
	return New(Config{RPCURL: rpcURL, APIKey: "test-key", RPS: 1000, Burst: 100}, nil)
}

func rpcHandler(t *testing.T, results map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Method {
		case "getSignaturesForAddress":
			require.Equal(t, testWallet, req.Params[0])
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":[{"signature":"raw1"},{"signature":"raw2"}]}`)
		case "getTransaction":
			sig := req.Params[0].(string)
			result, ok := results[sig]
			if !ok {
				result = "null"
			}
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
		default:
			t.Errorf("unexpected rpc method %q", req.Method)
		}
	}
}

func TestRawTransactionsFetchesPerSignature(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"raw1": `{"blockTime":1700000000,"slot":5,"meta":{"fee":5000,"preBalances":[10],"postBalances":[5]},"transaction":{"message":{"accountKeys":["` + testWallet + `"]}}}`,
		"raw2": `{"blockTime":1700000100,"slot":6,"meta":{"fee":5000,"preBalances":[5],"postBalances":[4]},"transaction":{"message":{"accountKeys":["` + testWallet + `"]}}}`,
	}))
	defer srv.Close()

	txs, err := newRPCTestClient(srv.URL).RawTransactions(context.Background(), testWallet, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	// The top-level signature comes from the listing, not the body.
	assert.Equal(t, "raw1", txs[0].Sig())
	assert.Equal(t, int64(1700000000), txs[0].BlockTime)
	require.NotNil(t, txs[0].Meta)
	assert.Equal(t, uint64(5000), txs[0].Meta.Fee)
}

func TestRawTransactionsSkipsPrunedSignatures(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"raw1": `{"blockTime":1700000000,"slot":5,"meta":{"fee":5000},"transaction":{"message":{"accountKeys":["` + testWallet + `"]}}}`,
	}))
	defer srv.Close()

	txs, err := newRPCTestClient(srv.URL).RawTransactions(context.Background(), testWallet, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "raw1", txs[0].Sig())
}

func TestRawTransactionsSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`)
	}))
	defer srv.Close()

	_, err := newRPCTestClient(srv.URL).RawTransactions(context.Background(), testWallet, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid params")
}

func TestRawTransactionsRequiresAPIKey(t *testing.T) {
	client := New(Config{RPCURL: "http://unused"}, nil)
	_, err := client.RawTransactions(context.Background(), testWallet, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestHealthyWhileBreakerClosed(t *testing.T) {
	assert.NoError(t, newTestClient("http://unused").Healthy())
}

func TestWalletBalancesDecodesFlexibleShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v0/addresses/"+testWallet+"/balances", r.URL.Path)
		fmt.Fprint(w, `{
			"tokens": [{"mint": "m1", "amount": 1500000, "decimals": 6}],
			"nativeBalance": {"lamports": 2500000000, "usdValue": 375}
		}`)
	}))
	defer srv.Close()

	balances, err := newTestClient(srv.URL).WalletBalances(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, balances.Tokens, 1)
	assert.InDelta(t, 1.5, balances.Tokens[0].UIAmount(), 1e-9)
	assert.InDelta(t, 2.5, balances.NativeBalance.SOL(), 1e-9)
	assert.InDelta(t, 375, balances.NativeBalance.USDValue, 1e-9)
}

func TestNativeBalanceBareNumber(t *testing.T) {
	var n NativeBalance
	require.NoError(t, json.Unmarshal([]byte("1000000000"), &n))
	assert.InDelta(t, 1, n.SOL(), 1e-9)
}
