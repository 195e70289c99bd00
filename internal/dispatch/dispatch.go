// Package dispatch implements the Transfer Dispatcher (C5): pick an
// adapter by token, submit the transfer, and append a PENDING ledger entry
// only once a real hash comes back. Grounded on the shape of
// internal/settlement's reserve-then-commit flow, but §4.6 inverts the
// order deliberately: here the chain call happens first and the write
// happens only on success, so a submission that never reaches the chain
// never creates a stray record.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"chainvault/internal/chain"
	"chainvault/internal/chainset"
	"chainvault/internal/db"
	"chainvault/internal/validate"

	"github.com/shopspring/decimal"
)

// Dispatcher submits transfers and records their outcome.
type Dispatcher struct {
	store  *db.DB
	chains *chainset.Set
}

// New constructs a Dispatcher.
func New(store *db.DB, chains *chainset.Set) *Dispatcher {
	return &Dispatcher{store: store, chains: chains}
}

// Dispatch validates, submits, and records a transfer. A failed submission
// propagates the adapter's error and writes no ledger entry (§4.6.4).
func (d *Dispatcher) Dispatch(ctx context.Context, user *db.User, recipient string, amount decimal.Decimal, token string) (*db.LedgerEntry, error) {
	upperToken := strings.ToUpper(strings.TrimSpace(token))

	if err := validate.ValidateTransfer(recipient, amount, upperToken); err != nil {
		return nil, err
	}

	network := chain.NetworkForToken(upperToken)
	adapter, err := d.chains.For(network)
	if err != nil {
		return nil, err
	}

	fromKey, err := senderKey(user, network)
	if err != nil {
		return nil, err
	}

	txHash, err := adapter.Transfer(ctx, fromKey, recipient, amount, upperToken)
	if err != nil {
		return nil, err
	}

	entry := &db.LedgerEntry{
		UserID:    user.ID,
		Recipient: recipient,
		Amount:    amount,
		Token:     upperToken,
		Network:   network,
		TxHash:    &txHash,
		Status:    db.LedgerStatusPending,
		Type:      db.LedgerTypeTransfer,
	}
	if err := d.store.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("dispatch: append ledger entry: %w", err)
	}
	return entry, nil
}

// senderKey picks the credential material for the chain a transfer settles on.
func senderKey(user *db.User, network chain.Network) (string, error) {
	switch network {
	case chain.Ethereum:
		if user.EVMPrivateKeyHex == nil {
			return "", fmt.Errorf("dispatch: user %d has no evm credentials", user.ID)
		}
		return *user.EVMPrivateKeyHex, nil
	case chain.XRP:
		if user.XRPSeedHex == nil {
			return "", fmt.Errorf("dispatch: user %d has no xrp credentials", user.ID)
		}
		return *user.XRPSeedHex, nil
	case chain.Solana:
		if user.SolanaSecretKeyB64 == nil {
			return "", fmt.Errorf("dispatch: user %d has no solana credentials", user.ID)
		}
		return *user.SolanaSecretKeyB64, nil
	default:
		return "", fmt.Errorf("dispatch: unknown network %q", network)
	}
}
