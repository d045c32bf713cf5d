// Package pricing resolves USD prices for denomination conversion:
// historical first, current as a fallback, and an honest miss when
// neither exists.
package pricing

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/leaklens/leaklens/internal/providers/coingecko"
	"github.com/leaklens/leaklens/internal/providers/jupiter"
	"github.com/leaklens/leaklens/internal/solana"
)

// Source chains the price providers. Only SOL has a historical series;
// other mints resolve to current prices or miss.
type Source struct {
	historical *coingecko.Client
	current    *jupiter.Client
}

// NewSource builds the chained source. Either client may be nil, which
// disables that tier.
func NewSource(historical *coingecko.Client, current *jupiter.Client) *Source {
	return &Source{historical: historical, current: current}
}

// PriceAt resolves the USD price of mint at unixtime. A zero or missing
// timestamp skips straight to current prices.
func (s *Source) PriceAt(ctx context.Context, mint string, unixtime int64) (float64, bool) {
	if mint == "" {
		return 0, false
	}

	if mint == solana.WSOLMint && unixtime > 0 && s.historical != nil {
		price, err := s.historical.SOLPriceAt(ctx, unixtime)
		if err == nil && price > 0 {
			return price, true
		}
		if err != nil {
			log.Debug().Err(err).Int64("unixtime", unixtime).Msg("historical SOL price unavailable")
		}
	}

	if s.current != nil {
		if mint == solana.WSOLMint && s.historical != nil {
			if price, err := s.historical.SOLPrice(ctx); err == nil && price > 0 {
				return price, true
			}
		}
		prices, err := s.current.Prices(ctx, []string{mint})
		if err == nil {
			if price, ok := prices[mint]; ok && price > 0 {
				return price, true
			}
		} else {
			log.Debug().Err(err).Str("mint", mint).Msg("current price unavailable")
		}
	}

	return 0, false
}
