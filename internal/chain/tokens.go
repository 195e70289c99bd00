package chain

import "math/big"

// tokenDecimals is the single source of truth for atomic-unit scale per
// token symbol. Never hardcode a decimals constant elsewhere.
var tokenDecimals = map[string]int32{
	"ETH":       18,
	"EURC":      18,
	"USDC":      6,
	"TEST-USDC": 6,
	"TEST-EURC": 18,
	"XRP":       6, // drops
	"SOL":       9, // lamports
}

// DecimalsForToken returns the atomic-unit scale for a token symbol.
// Callers must validate the symbol first; an unknown symbol returns 0.
func DecimalsForToken(token string) int32 {
	return tokenDecimals[token]
}

// AllowedNetworkTokens is the (network, token) matrix of §3.1: any entry
// outside this set is rejected by the validation gate before it ever
// reaches an adapter.
var AllowedNetworkTokens = map[Network]map[string]bool{
	Ethereum: {
		"ETH":       true,
		"USDC":      true,
		"EURC":      true,
		"TEST-USDC": true,
		"TEST-EURC": true,
	},
	XRP:    {"XRP": true},
	Solana: {"SOL": true},
}

// NetworkForToken maps a token symbol to the network that settles it.
// Tokens not in the matrix return "" — callers must reject those earlier.
func NetworkForToken(token string) Network {
	switch token {
	case "SOL":
		return Solana
	case "XRP":
		return XRP
	default:
		if AllowedNetworkTokens[Ethereum][token] {
			return Ethereum
		}
		return ""
	}
}

// pow10 returns 10^exp as a big.Int, used to convert between human-readable
// decimal amounts and chain-native atomic units (wei, drops, lamports).
func pow10(exp int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
