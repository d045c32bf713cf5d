package swap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaklens/leaklens/internal/analysis/normalize"
	"github.com/leaklens/leaklens/internal/solana"
)

const memeMint = "Meme4444444444444444444444444444444444444444"

func TestExplicitEventWinsOverDeltas(t *testing.T) {
	res := normalize.Result{
		Signature: "sig1",
		Timestamp: 1700000000,
		Events: solana.RawSwapEvents{{
			"tokenIn":   solana.WSOLMint,
			"amountIn":  1.5,
			"tokenOut":  memeMint,
			"amountOut": 100000.0,
		}},
		// Contradictory deltas that inference would read differently.
		Deltas: []normalize.TransferDelta{
			{Mint: solana.USDCMint, Amount: -50, Signature: "sig1", Timestamp: 1700000000},
			{Mint: memeMint, Amount: 1, Signature: "sig1", Timestamp: 1700000000},
		},
	}

	events, diag := Detect([]normalize.Result{res})
	require.Len(t, events, 1)
	assert.Equal(t, 1, diag.Explicit)
	assert.Equal(t, 0, diag.Inferred)
	assert.Equal(t, solana.WSOLMint, events[0].TokenIn)
	assert.InDelta(t, 1.5, events[0].AmountIn, 1e-9)
	assert.Equal(t, memeMint, events[0].TokenOut)
	assert.Equal(t, "sig1", events[0].Signature)
	assert.Equal(t, int64(1700000000), events[0].Timestamp)
}

func TestExplicitAliasSpellings(t *testing.T) {
	cases := []map[string]any{
		{"tokenIn": "A", "tokenOut": "B", "amountIn": 1.0, "amountOut": 2.0},
		{"token_in": "A", "token_out": "B", "amount_in": 1.0, "amount_out": 2.0},
		{"source": "A", "destination": "B", "inputAmount": 1.0, "outputAmount": 2.0},
		{"inputMint": "A", "outputMint": "B", "input_amount": "1", "output_amount": "2"},
	}
	for _, raw := range cases {
		res := normalize.Result{Signature: "s", Timestamp: 1, Events: solana.RawSwapEvents{raw}}
		events, _ := Detect([]normalize.Result{res})
		require.Len(t, events, 1, "alias case %v", raw)
		assert.Equal(t, "A", events[0].TokenIn)
		assert.Equal(t, "B", events[0].TokenOut)
		assert.InDelta(t, 1, events[0].AmountIn, 1e-9)
		assert.InDelta(t, 2, events[0].AmountOut, 1e-9)
	}
}

func TestBadExplicitEventFallsThroughToInference(t *testing.T) {
	res := normalize.Result{
		Signature: "sig2",
		Timestamp: 1700000100,
		Events: solana.RawSwapEvents{{
			"tokenIn":  solana.WSOLMint,
			"amountIn": 1.5,
			// Missing output side.
		}},
		Deltas: []normalize.TransferDelta{
			{Mint: solana.WSOLMint, Amount: -1.5},
			{Mint: memeMint, Amount: 100000},
		},
	}

	events, diag := Detect([]normalize.Result{res})
	require.Len(t, events, 1)
	assert.Equal(t, 1, diag.BadEvent)
	assert.Equal(t, 1, diag.Inferred)
	assert.Equal(t, solana.WSOLMint, events[0].TokenIn)
	assert.Equal(t, memeMint, events[0].TokenOut)
}

func TestInferenceDominantLegs(t *testing.T) {
	res := normalize.Result{
		Signature: "sig3",
		Timestamp: 1700000200,
		Deltas: []normalize.TransferDelta{
			{Mint: solana.USDCMint, Amount: -100},
			{Mint: solana.WSOLMint, Amount: -0.001}, // minor leg, fee dust
			{Mint: memeMint, Amount: 5000},
		},
	}

	events, _ := Detect([]normalize.Result{res})
	require.Len(t, events, 1)
	assert.Equal(t, solana.USDCMint, events[0].TokenIn)
	assert.InDelta(t, 100, events[0].AmountIn, 1e-9)
	assert.Equal(t, memeMint, events[0].TokenOut)
}

func TestInferenceRejectsOneSidedFlows(t *testing.T) {
	deposit := normalize.Result{
		Signature: "sig4", Timestamp: 1,
		Deltas: []normalize.TransferDelta{{Mint: solana.WSOLMint, Amount: 5}},
	}
	events, diag := Detect([]normalize.Result{deposit})
	assert.Empty(t, events)
	assert.Equal(t, 1, diag.NoSwapPattern)
}

func TestInferenceRejectsNativeToNative(t *testing.T) {
	res := normalize.Result{
		Signature: "sig5", Timestamp: 1,
		Deltas: []normalize.TransferDelta{
			{Mint: solana.WSOLMint, Amount: -0.1},
			{Mint: solana.WSOLMint, Amount: 0.05},
		},
	}
	// A single mint cannot appear twice after normalization, but guard the
	// dominant-leg selection anyway with one negative-only record.
	events, diag := Detect([]normalize.Result{res})
	assert.Empty(t, events)
	assert.Equal(t, 1, diag.NoSwapPattern)
}

func TestEmptyResultCounted(t *testing.T) {
	events, diag := Detect([]normalize.Result{{Signature: "sig6", Timestamp: 1}})
	assert.Empty(t, events)
	assert.Equal(t, 1, diag.NoDeltas)
}
