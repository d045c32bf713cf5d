package swap

import "strconv"

// Known field spellings across indexer payload versions. Kept as an
// explicit lookup table so a new spelling is a one-line change.
var (
	aliasTokenIn   = []string{"tokenIn", "token_in", "source", "inputMint", "input_mint"}
	aliasTokenOut  = []string{"tokenOut", "token_out", "destination", "outputMint", "output_mint"}
	aliasAmountIn  = []string{"amountIn", "amount_in", "inputAmount", "input_amount"}
	aliasAmountOut = []string{"amountOut", "amount_out", "outputAmount", "output_amount"}
	aliasTimestamp = []string{"timestamp", "blockTime", "block_time"}
	aliasSignature = []string{"signature", "transactionSignature"}
)

func stringField(raw map[string]any, aliases []string, fallback string) string {
	for _, key := range aliases {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return fallback
}

func floatField(raw map[string]any, aliases []string) float64 {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if f := toFloat(v); f != 0 {
			return f
		}
	}
	return 0
}

func intField(raw map[string]any, aliases []string, fallback int64) int64 {
	for _, key := range aliases {
		if v, ok := raw[key]; ok {
			if f := toFloat(v); f != 0 {
				return int64(f)
			}
		}
	}
	return fallback
}

// toFloat coerces the value types encoding/json produces for numbers.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
