// Package solana implements the chain.Adapter interface for the Solana
// network, grounded on internal/wallet/testing_solana.go's transaction
// construction style (ed25519 keypair, solana.NewTransaction, a signing
// closure keyed off the fee payer's public key) generalized from that
// file's USDC-SPL-token path to native SOL transfers via the system
// program, since this adapter only ever handles the SOL token per §6.4's
// allowed network/token matrix.
package solana

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"chainvault/internal/chain"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

const (
	requestTimeout    = 10 * time.Second
	lamportsPerSOL    = 1_000_000_000
	airdropSettleWait = 2 * time.Second
)

// Config configures an Adapter.
type Config struct {
	RPCURL string
}

// Adapter implements chain.Adapter for Solana.
type Adapter struct {
	client *rpc.Client
}

// New constructs an Adapter against a Solana RPC endpoint.
func New(cfg Config) *Adapter {
	return &Adapter{client: rpc.New(cfg.RPCURL)}
}

// Generate mints a fresh ed25519 keypair and returns its base58 address.
// The secret is reported base64-encoded (64-byte ed25519 private key: seed
// || public key), matching the persisted solanaSecretKeyB64 column — unlike
// EVM/XRP, the "KeyHex" field name is a misnomer here inherited from the
// shared Credential shape.
func (a *Adapter) Generate(ctx context.Context) (chain.Credential, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return chain.Credential{}, fmt.Errorf("%w: generate keypair: %v", chain.ErrPermanent, err)
	}
	return chain.Credential{
		Address: solana.PublicKeyFromBytes(pub).String(),
		KeyHex:  base64.StdEncoding.EncodeToString(priv),
	}, nil
}

// Balance returns the account's lamport balance converted to whole SOL.
func (a *Adapter) Balance(ctx context.Context, address, token string) (decimal.Decimal, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid solana address: %v", chain.ErrPermanent, err)
	}

	cctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	out, err := a.client.GetBalance(cctx, pub, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: get_balance: %v", chain.ErrTransient, err)
	}

	lamports := decimal.NewFromInt(int64(out.Value))
	return lamports.Div(decimal.NewFromInt(lamportsPerSOL)), nil
}

// Transfer signs and submits a native SOL transfer via the system program.
func (a *Adapter) Transfer(ctx context.Context, fromKeyB64, to string, amount decimal.Decimal, token string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(fromKeyB64)
	if err != nil {
		return "", fmt.Errorf("%w: invalid solana private key encoding: %v", chain.ErrPermanent, err)
	}
	priv := solana.PrivateKey(secret)
	from := priv.PublicKey()

	toPub, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("%w: invalid recipient address: %v", chain.ErrPermanent, err)
	}

	lamports := amount.Mul(decimal.NewFromInt(lamportsPerSOL)).BigInt().Uint64()

	cctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	latest, err := a.client.GetLatestBlockhash(cctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("%w: get_latest_blockhash: %v", chain.ErrTransient, err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, from, toPub).Build(),
		},
		latest.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return "", fmt.Errorf("%w: build transaction: %v", chain.ErrPermanent, err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from) {
			return &priv
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("%w: sign transaction: %v", chain.ErrPermanent, err)
	}

	sig, err := a.client.SendTransaction(cctx, tx)
	if err != nil {
		return "", fmt.Errorf("%w: send_transaction: %v", chain.ErrTransient, err)
	}

	return sig.String(), nil
}

// Receipt reports a transaction's confirmation and execution status.
func (a *Adapter) Receipt(ctx context.Context, txHash string) (chain.Receipt, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("%w: invalid signature: %v", chain.ErrPermanent, err)
	}

	cctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	maxVersion := uint64(0)
	out, err := a.client.GetTransaction(cctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if err == rpc.ErrNotFound {
			return chain.Receipt{Mined: false}, nil
		}
		return chain.Receipt{}, fmt.Errorf("%w: get_transaction: %v", chain.ErrTransient, err)
	}
	if out == nil || out.Meta == nil {
		return chain.Receipt{Mined: false}, nil
	}

	return chain.Receipt{
		Mined:       true,
		OK:          out.Meta.Err == nil,
		BlockNumber: out.Slot,
	}, nil
}

// LatestBlock returns the current slot.
func (a *Adapter) LatestBlock(ctx context.Context) (uint64, error) {
	cctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	slot, err := a.client.GetSlot(cctx, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("%w: get_slot: %v", chain.ErrTransient, err)
	}
	return slot, nil
}

// RequestAirdrop funds an address on a test network and waits out the
// propagation delay the spec's concurrency model requires before the
// lamports are reliably visible to a subsequent Balance call.
func (a *Adapter) RequestAirdrop(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", fmt.Errorf("%w: invalid solana address: %v", chain.ErrPermanent, err)
	}
	lamports := amount.Mul(decimal.NewFromInt(lamportsPerSOL)).BigInt().Uint64()

	cctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	sig, err := a.client.RequestAirdrop(cctx, pub, lamports, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("%w: request_airdrop: %v", chain.ErrTransient, err)
	}

	select {
	case <-time.After(airdropSettleWait):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return sig.String(), nil
}

var _ chain.Adapter = (*Adapter)(nil)
