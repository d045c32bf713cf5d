package solana

// Well-known mainnet mints.
const (
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	WSOLMint = "So11111111111111111111111111111111111111112"
)

// LamportsPerSOL converts raw native amounts to SOL.
const LamportsPerSOL = 1e9

// MinAddressLen is the shortest base58 length a mainnet address can have.
const MinAddressLen = 32

// StableMints are tokens treated as 1 unit ≈ 1 USD for cost-basis accounting.
var StableMints = map[string]bool{
	USDCMint: true,
	USDTMint: true,
}

// StableSymbols covers stable tokens recognized by symbol when the mint is unknown.
var StableSymbols = map[string]bool{
	"USDC": true, "USDT": true, "USDH": true, "PYUSD": true, "USDS": true, "DAI": true,
}

// MemeSymbols is the static meme-asset allow-list used by the node classifier
// and the portfolio summary.
var MemeSymbols = []string{
	"BONK", "WIF", "POPCAT", "MEW", "BOME", "MYRO", "SLERF", "WEN", "GIGA",
}

// KnownExchanges lists centralized exchange deposit addresses (KYC venues).
var KnownExchanges = map[string]bool{
	"4wjPQJ6PrkC4rHuvYbRqLQrXgct6K6GQ3k6e7vJ5J5J5": true, // Binance
	"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU": true, // Coinbase
}

// KnownDEXPrograms lists on-chain swap program IDs.
var KnownDEXPrograms = map[string]bool{
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": true, // Raydium AMM
	"9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP": true, // Orca
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  true, // Jupiter
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  true, // Orca Whirlpool
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": true, // Raydium CLMM
}

// KnownDeFiProtocols lists lending/staking program IDs.
var KnownDeFiProtocols = map[string]bool{
	"So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo":  true, // Solend
	"4UpD2fh7xH3VP9QQaXtsS1YY3bxzWhtfpks7FatyKvdY": true, // Marinade
}

// IsStableMint reports whether mint is a recognized stable-value asset.
func IsStableMint(mint string) bool { return StableMints[mint] }

// IsStableSymbol reports whether an upper-cased token symbol is stable-valued.
func IsStableSymbol(symbol string) bool { return StableSymbols[symbol] }
