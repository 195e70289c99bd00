// Package chain defines the shared adapter interface implemented once per
// ledger (Ethereum, XRP Ledger, Solana). Callers depend only on this
// interface; chain-specific wire protocols live in the evm/xrpl/solana
// subpackages.
package chain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Network identifies which ledger an address/entry belongs to.
type Network string

const (
	Ethereum Network = "ETHEREUM"
	XRP      Network = "XRP"
	Solana   Network = "SOLANA"
)

// Credential is a freshly generated keypair for one chain.
type Credential struct {
	Address string
	KeyHex  string // chain-native secret encoding: hex for EVM/XRP seed, base64 for Solana
}

// Receipt is the normalized result of polling a chain for a transaction's fate.
type Receipt struct {
	Mined       bool
	OK          bool // true when the chain reports success; meaningless if !Mined
	BlockNumber uint64
}

// Adapter is the five-operation surface every chain implements.
//
//	Generate     — mint a fresh keypair for a new user.
//	Balance      — query an address's balance of a token.
//	Transfer     — sign and submit a transfer, returning a tx hash.
//	Receipt      — poll for a transaction's mined/confirmed state.
//	LatestBlock  — current chain height (EVM confirmation counting only).
type Adapter interface {
	Generate(ctx context.Context) (Credential, error)
	Balance(ctx context.Context, address, token string) (decimal.Decimal, error)
	Transfer(ctx context.Context, fromKeyHex, to string, amount decimal.Decimal, token string) (txHash string, err error)
	Receipt(ctx context.Context, txHash string) (Receipt, error)
	LatestBlock(ctx context.Context) (uint64, error)
}

// Sentinel error kinds. Adapters wrap these with fmt.Errorf("...: %w", ErrX)
// so callers can classify failures with errors.Is without caring which
// chain produced them.
var (
	// ErrTransient marks a network/RPC failure the caller should retry.
	ErrTransient = errors.New("transient network error")
	// ErrPermanent marks a failure that will never succeed on retry (bad key, bad format).
	ErrPermanent = errors.New("permanent error")
	// ErrInsufficientBalance means a pre-submit or submit-time balance check failed.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNotFound means a receipt/tx lookup found nothing (not necessarily an error to the caller).
	ErrNotFound = errors.New("not found")
)

// SyntheticFaucetPrefix marks tx hashes that are not real on-chain identifiers
// (the XRP faucet never returns one) and must never be polled for a receipt.
const SyntheticFaucetPrefix = "XRP_FAUCET_"

// IsSynthetic reports whether hash is a synthetic, unpollable identifier.
func IsSynthetic(hash string) bool {
	return len(hash) >= len(SyntheticFaucetPrefix) && hash[:len(SyntheticFaucetPrefix)] == SyntheticFaucetPrefix
}
