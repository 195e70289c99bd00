// Package xrpl implements the chain.Adapter interface for the XRP Ledger.
// There is no usable client-SDK grounding in the example pack (the only
// XRPL repository imports a placeholder module path rather than a real
// client API), so this follows the teacher's own fallback of talking to
// the node over raw JSON-RPC, the same way internal/wallet/wallet.go
// bypasses ethclient's typed helpers for a raw eth_call.
package xrpl

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"chainvault/internal/chain"

	"github.com/shopspring/decimal"
)

const dropsPerXRP = 1_000_000

// Config configures an Adapter.
type Config struct {
	RPCURL    string
	FaucetURL string
}

// Adapter implements chain.Adapter for the XRP Ledger.
type Adapter struct {
	rpc    *rpcClient
	faucet *faucetClient
}

// New constructs an Adapter from configuration.
func New(cfg Config) *Adapter {
	return &Adapter{
		rpc:    newRPCClient(cfg.RPCURL),
		faucet: newFaucetClient(cfg.FaucetURL),
	}
}

// Generate mints a fresh ED25519 keypair and derives its classic address.
func (a *Adapter) Generate(ctx context.Context) (chain.Credential, error) {
	entropy, err := GenerateEntropy()
	if err != nil {
		return chain.Credential{}, fmt.Errorf("%w: %v", chain.ErrPermanent, err)
	}

	_, pubWithPrefix, err := DeriveKeypair(entropy)
	if err != nil {
		return chain.Credential{}, fmt.Errorf("%w: %v", chain.ErrPermanent, err)
	}

	address := EncodeAddress(AccountID(pubWithPrefix))
	return chain.Credential{
		Address: address,
		KeyHex:  hex.EncodeToString(entropy),
	}, nil
}

// Balance returns the XRP balance in whole XRP (drops / 1_000_000).
func (a *Adapter) Balance(ctx context.Context, address, token string) (decimal.Decimal, error) {
	info, err := a.rpc.accountInfo(ctx, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: account_info: %v", chain.ErrTransient, err)
	}
	if info.AccountData == nil {
		// An unfunded account reads as zero balance rather than an error.
		return decimal.Zero, nil
	}

	drops, err := decimal.NewFromString(info.AccountData.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: parse balance: %v", chain.ErrTransient, err)
	}
	return drops.Div(decimal.NewFromInt(dropsPerXRP)), nil
}

// Transfer signs and submits a native XRP Payment.
func (a *Adapter) Transfer(ctx context.Context, fromKeyHex, to string, amount decimal.Decimal, token string) (string, error) {
	entropy, err := hex.DecodeString(fromKeyHex)
	if err != nil {
		return "", fmt.Errorf("%w: invalid xrp seed: %v", chain.ErrPermanent, err)
	}

	priv, pubWithPrefix, err := DeriveKeypair(entropy)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chain.ErrPermanent, err)
	}
	from := EncodeAddress(AccountID(pubWithPrefix))

	info, err := a.rpc.accountInfo(ctx, from)
	if err != nil {
		return "", fmt.Errorf("%w: account_info: %v", chain.ErrTransient, err)
	}
	if info.AccountData == nil {
		return "", fmt.Errorf("%w: sender account %s not found or unfunded", chain.ErrPermanent, from)
	}

	fee, err := a.rpc.openLedgerFee(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: fee: %v", chain.ErrTransient, err)
	}

	drops := amount.Mul(decimal.NewFromInt(dropsPerXRP)).BigInt()

	p := payment{
		Account:         from,
		Destination:     to,
		Amount:          drops.String(),
		Fee:             fee,
		Sequence:        info.AccountData.Sequence,
		TransactionType: "Payment",
	}

	signedHex, txHash, err := signPayment(priv, pubWithPrefix, p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chain.ErrPermanent, err)
	}

	result, err := a.rpc.submit(ctx, signedHex)
	if err != nil {
		return "", fmt.Errorf("%w: submit: %v", chain.ErrTransient, err)
	}
	if result.EngineResult != "tesSUCCESS" {
		return "", fmt.Errorf("%w: submit rejected with engine result %s", chain.ErrPermanent, result.EngineResult)
	}

	return txHash, nil
}

// Receipt reports a transaction's validated status. rippled's txnNotFound
// error is treated as "still pending", per §4.2's failure semantics.
func (a *Adapter) Receipt(ctx context.Context, txHash string) (chain.Receipt, error) {
	result, err := a.rpc.txStatus(ctx, txHash)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("%w: tx: %v", chain.ErrTransient, err)
	}

	if result.Error != "" {
		if isTxnNotFound(result.Error) {
			return chain.Receipt{Mined: false}, nil
		}
		return chain.Receipt{}, fmt.Errorf("%w: tx lookup error: %s", chain.ErrTransient, result.Error)
	}

	if !result.Validated {
		return chain.Receipt{Mined: false}, nil
	}

	ok := result.Meta != nil && result.Meta.TransactionResult == "tesSUCCESS"
	return chain.Receipt{Mined: true, OK: ok, BlockNumber: result.LedgerIndex}, nil
}

// LatestBlock is unused by XRPL: the adapter reports confirmation purely
// via the "validated" boolean, so callers should not rely on this value.
func (a *Adapter) LatestBlock(ctx context.Context) (uint64, error) {
	return 0, nil
}

// RequestFaucetFunding asks the configured testnet faucet to fund an
// address. The faucet's response is intentionally not trusted for a real
// transaction hash (§6.2) — callers synthesize one via SyntheticHash.
func (a *Adapter) RequestFaucetFunding(ctx context.Context, address string) error {
	return a.faucet.fund(ctx, address)
}

// SyntheticHash builds the tracking identifier recorded for faucet funding,
// since the faucet never returns a real transaction hash.
func SyntheticHash(address string, now time.Time) string {
	prefix := address
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return chain.SyntheticFaucetPrefix + prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

var _ chain.Adapter = (*Adapter)(nil)
