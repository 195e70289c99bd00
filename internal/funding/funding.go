// Package funding implements the Funding Recorder (C6): system-initiated
// credits to a user's address (ETH drip, ERC-20 mint, XRP faucet),
// recorded with optimistic CONFIRMED/FAILED semantics rather than going
// through the monitor loop. Grounded on internal/settlement/worker.go's
// convention of recording an outcome rather than raising to the caller,
// generalized from "settlement succeeded/failed" to "funding succeeded/failed".
package funding

import (
	"context"
	"fmt"
	"time"

	"chainvault/internal/chain"
	"chainvault/internal/chain/evm"
	"chainvault/internal/chain/xrpl"
	"chainvault/internal/db"

	"github.com/shopspring/decimal"
)

// ErrConfigurationMissing is surfaced (not recorded) when a funding
// operation is requested but its required configuration is absent.
var ErrConfigurationMissing = fmt.Errorf("funding: required configuration missing")

// Config holds the per-network funding amounts and credentials. A zero
// EVMFundingKeyHex means ETH funding is skipped entirely — not an error,
// per §6.4.
type Config struct {
	EVMFundingKeyHex string
	InitialEth       decimal.Decimal
	InitialXrp       decimal.Decimal
	MinterKeyHex     string
}

// Recorder writes funding outcomes to the ledger store.
type Recorder struct {
	store *db.DB
	evm   *evm.Adapter
	xrpl  *xrpl.Adapter
	cfg   Config
}

// New constructs a Recorder.
func New(store *db.DB, evmAdapter *evm.Adapter, xrplAdapter *xrpl.Adapter, cfg Config) *Recorder {
	return &Recorder{store: store, evm: evmAdapter, xrpl: xrplAdapter, cfg: cfg}
}

// RecordFunding writes a ledger entry for a funding-family operation with
// the optimistic CONFIRMED/FAILED status convention of §4.7: CONFIRMED if a
// non-empty hash was obtained, FAILED otherwise. Never PENDING.
func (r *Recorder) RecordFunding(ctx context.Context, userID int64, recipient string, amount decimal.Decimal, token string, network chain.Network, txHash *string, fundingType db.LedgerType) (*db.LedgerEntry, error) {
	status := db.LedgerStatusFailed
	if txHash != nil && *txHash != "" {
		status = db.LedgerStatusConfirmed
	}

	entry := &db.LedgerEntry{
		UserID:    userID,
		Recipient: recipient,
		Amount:    amount,
		Token:     token,
		Network:   network,
		TxHash:    txHash,
		Status:    status,
		Type:      fundingType,
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("funding: record entry: %w", err)
	}
	return entry, nil
}

// FundNewUser drips ETH to a freshly created user's EVM address (if a
// funding key is configured) and requests XRP faucet funding. Solana gets
// no entry here by design (§8 scenario 1) — Solana devnet funding happens
// only via the explicit airdrop path, not eager account creation.
func (r *Recorder) FundNewUser(ctx context.Context, user *db.User) {
	if r.cfg.EVMFundingKeyHex != "" && user.EVMAddress != nil {
		r.fundETH(ctx, user)
	}
	if user.XRPAddress != nil {
		r.fundXRPFaucet(ctx, user)
	}
}

func (r *Recorder) fundETH(ctx context.Context, user *db.User) {
	var hash *string
	txHash, err := r.evm.Transfer(ctx, r.cfg.EVMFundingKeyHex, *user.EVMAddress, r.cfg.InitialEth, "ETH")
	if err == nil {
		hash = &txHash
	}
	if _, recErr := r.RecordFunding(ctx, user.ID, *user.EVMAddress, r.cfg.InitialEth, "ETH", chain.Ethereum, hash, db.LedgerTypeFunding); recErr != nil {
		// The record error is discarded, not logged; funding failures never
		// propagate past this point (§7 funding path).
		_ = recErr
	}
}

func (r *Recorder) fundXRPFaucet(ctx context.Context, user *db.User) {
	var hash *string
	err := r.xrpl.RequestFaucetFunding(ctx, *user.XRPAddress)
	if err == nil {
		synthetic := xrpl.SyntheticHash(*user.XRPAddress, time.Now())
		hash = &synthetic
	}
	if _, recErr := r.RecordFunding(ctx, user.ID, *user.XRPAddress, r.cfg.InitialXrp, "XRP", chain.XRP, hash, db.LedgerTypeFaucetFunding); recErr != nil {
		_ = recErr
	}
}

// MintResult reports the hashes (or lack thereof) of a test-token mint.
type MintResult struct {
	USDCTxHash string
	EURCTxHash string
}

// FundTestTokens mints TEST-USDC and TEST-EURC to a user's EVM address.
// Requires a configured minter key; its absence is ErrConfigurationMissing
// surfaced directly rather than recorded, since there is nothing to attempt.
func (r *Recorder) FundTestTokens(ctx context.Context, user *db.User) (*MintResult, error) {
	if r.cfg.MinterKeyHex == "" {
		return nil, ErrConfigurationMissing
	}
	if user.EVMAddress == nil {
		return nil, fmt.Errorf("funding: user has no evm address")
	}

	result := &MintResult{}

	usdcHash, err := r.evm.Mint(ctx, *user.EVMAddress, decimal.NewFromInt(100), "TEST-USDC")
	var usdcHashPtr *string
	if err == nil {
		usdcHashPtr = &usdcHash
		result.USDCTxHash = usdcHash
	}
	if _, recErr := r.RecordFunding(ctx, user.ID, *user.EVMAddress, decimal.NewFromInt(100), "TEST-USDC", chain.Ethereum, usdcHashPtr, db.LedgerTypeMinting); recErr != nil {
		return nil, recErr
	}

	eurcHash, err := r.evm.Mint(ctx, *user.EVMAddress, decimal.NewFromInt(100), "TEST-EURC")
	var eurcHashPtr *string
	if err == nil {
		eurcHashPtr = &eurcHash
		result.EURCTxHash = eurcHash
	}
	if _, recErr := r.RecordFunding(ctx, user.ID, *user.EVMAddress, decimal.NewFromInt(100), "TEST-EURC", chain.Ethereum, eurcHashPtr, db.LedgerTypeMinting); recErr != nil {
		return nil, recErr
	}

	return result, nil
}
