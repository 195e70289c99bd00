package chain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToAtomic converts a human-readable decimal amount into the chain-native
// atomic unit (wei, drops, lamports) for the given token, the same
// decimals-aware scaling the teacher's usdc.MicroUSDC.ToBigInt performs
// between human amounts and on-chain integers.
func ToAtomic(amount decimal.Decimal, token string) *big.Int {
	scale := decimal.New(1, DecimalsForToken(token))
	atomic := amount.Mul(scale)
	return atomic.BigInt()
}

// FromAtomic is the reverse of ToAtomic.
func FromAtomic(atomic *big.Int, token string) decimal.Decimal {
	scale := decimal.New(1, DecimalsForToken(token))
	return decimal.NewFromBigInt(atomic, 0).DivRound(scale, 18)
}
