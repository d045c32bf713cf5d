package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leaklens/leaklens/internal/analysis/normalize"
)

func TestClassifyAllowLists(t *testing.T) {
	exchange := Classify("4wjPQJ6PrkC4rHuvYbRqLQrXgct6K6GQ3k6e7vJ5J5J5", false)
	assert.Equal(t, NodeExchange, exchange.Type)
	assert.Equal(t, "high", exchange.RiskLevel)

	dex := Classify("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", false)
	assert.Equal(t, NodeDEX, dex.Type)

	defi := Classify("So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo", false)
	assert.Equal(t, NodeDeFi, defi.Type)

	unknown := Classify("Othr2222222222222222222222222222222222222222", false)
	assert.Equal(t, NodeUnknown, unknown.Type)
}

func TestClassifyMemeFallback(t *testing.T) {
	addr := "Othr2222222222222222222222222222222222222222"
	assert.Equal(t, NodeMemecoin, Classify(addr, true).Type)
	// Allow-lists still win over the meme flag.
	assert.Equal(t, NodeDEX, Classify("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", true).Type)
}

func markResult(marks ...string) normalize.Result {
	return normalize.Result{Signature: "sig", Timestamp: 1, TokenMarks: marks}
}

func TestMemeActivityRequiresThreeMatches(t *testing.T) {
	two := []normalize.Result{markResult("BONK"), markResult("wif"), markResult("USDC")}
	assert.False(t, MemeActivity(two))

	three := append(two, markResult("popcat mint"))
	assert.True(t, MemeActivity(three))
}

func TestMemeActivityWindowLimit(t *testing.T) {
	// Meme marks beyond the scan window must not count.
	results := make([]normalize.Result, 0, 53)
	for i := 0; i < 50; i++ {
		results = append(results, markResult("USDC"))
	}
	results = append(results, markResult("BONK"), markResult("BONK"), markResult("BONK"))
	assert.False(t, MemeActivity(results))
}
