// Package db provides PostgreSQL database operations for Chainvault
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainvault/internal/chain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerStatus is the lifecycle state of a LedgerEntry. PENDING is the only
// non-terminal state; transitions out of it are monotonic (§8 I2).
type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "PENDING"
	LedgerStatusConfirmed LedgerStatus = "CONFIRMED"
	LedgerStatusFailed    LedgerStatus = "FAILED"
	LedgerStatusTimeout   LedgerStatus = "TIMEOUT"
	LedgerStatusDropped   LedgerStatus = "DROPPED"
)

// LedgerType distinguishes user-initiated transfers from system-initiated credits.
type LedgerType string

const (
	LedgerTypeTransfer        LedgerType = "TRANSFER"
	LedgerTypeFunding         LedgerType = "FUNDING"
	LedgerTypeMinting         LedgerType = "MINTING"
	LedgerTypeFaucetFunding   LedgerType = "FAUCET_FUNDING"
	LedgerTypeExternalFunding LedgerType = "EXTERNAL_FUNDING"
)

var (
	// ErrLedgerEntryNotFound is returned when a ledger lookup misses.
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")
	// ErrInvalidLedgerEntry is returned when append's invariant guard (§3.1) rejects an entry.
	ErrInvalidLedgerEntry = errors.New("invalid ledger entry")
	// ErrStatusTransitionRejected is returned when updateStatus targets a non-PENDING entry.
	ErrStatusTransitionRejected = errors.New("status transition rejected: entry is not PENDING")
)

// LedgerEntry is the unified transaction record (§3.1).
type LedgerEntry struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Token     string          `json:"token"`
	Network   chain.Network   `json:"network"`
	TxHash    *string         `json:"tx_hash,omitempty"`
	Status    LedgerStatus    `json:"status"`
	Type      LedgerType      `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
}

const ledgerSelectColumns = `id, user_id, recipient, amount, token, network, tx_hash, status, type, timestamp`

func scanLedgerEntry(row interface{ Scan(dest ...any) error }) (*LedgerEntry, error) {
	e := &LedgerEntry{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.Recipient, &e.Amount, &e.Token, &e.Network,
		&e.TxHash, &e.Status, &e.Type, &e.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}
	return e, nil
}

func scanLedgerEntries(rows pgx.Rows) ([]*LedgerEntry, error) {
	defer rows.Close()
	var entries []*LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// validateInvariants guards the §3.1 invariants the store itself must never
// violate, independent of whatever the validation gate already checked on
// the way in — the store is the last line of defense against a bad append.
func validateInvariants(e *LedgerEntry) error {
	if e.TxHash == nil || *e.TxHash == "" {
		if e.Status != LedgerStatusFailed && e.Status != LedgerStatusDropped {
			return fmt.Errorf("%w: null txHash requires status FAILED or DROPPED", ErrInvalidLedgerEntry)
		}
	}
	if !chain.AllowedNetworkTokens[e.Network][strings.ToUpper(e.Token)] {
		return fmt.Errorf("%w: (%s, %s) is not an allowed network/token pair", ErrInvalidLedgerEntry, e.Network, e.Token)
	}
	if e.Amount.Sign() <= 0 || e.Amount.Exponent() < -18 {
		return fmt.Errorf("%w: amount must be positive with scale <= 18", ErrInvalidLedgerEntry)
	}
	return nil
}

// Append assigns an id and timestamp and persists a new ledger entry.
func (db *DB) Append(ctx context.Context, e *LedgerEntry) error {
	if err := validateInvariants(e); err != nil {
		return err
	}

	query := `
		INSERT INTO ledger_entries (user_id, recipient, amount, token, network, tx_hash, status, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, timestamp
	`
	err := db.QueryRow(ctx, query,
		e.UserID, e.Recipient, e.Amount, e.Token, e.Network, e.TxHash, e.Status, e.Type,
	).Scan(&e.ID, &e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// UpdateStatus transitions an entry out of PENDING. Writes are idempotent
// when newStatus already matches the stored status, and reject any attempt
// to move an entry that is no longer PENDING (§4.4).
func (db *DB) UpdateStatus(ctx context.Context, id int64, newStatus LedgerStatus) error {
	query := `
		UPDATE ledger_entries
		SET status = $2
		WHERE id = $1 AND (status = $2 OR status = $3)
	`
	result, err := db.ExecResult(ctx, query, id, newStatus, LedgerStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update ledger status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrStatusTransitionRejected
	}
	return nil
}

// ByID is an exact lookup by primary key.
func (db *DB) ByID(ctx context.Context, id int64) (*LedgerEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries WHERE id = $1`, ledgerSelectColumns)
	return scanLedgerEntry(db.QueryRow(ctx, query, id))
}

// ByHash is an exact lookup by transaction hash.
func (db *DB) ByHash(ctx context.Context, txHash string) (*LedgerEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries WHERE tx_hash = $1`, ledgerSelectColumns)
	return scanLedgerEntry(db.QueryRow(ctx, query, txHash))
}

// ByStatus lists every entry in the given status, used by the monitor loop
// to fetch the PENDING set each tick.
func (db *DB) ByStatus(ctx context.Context, status LedgerStatus) ([]*LedgerEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries WHERE status = $1 ORDER BY timestamp ASC`, ledgerSelectColumns)
	rows, err := db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries by status: %w", err)
	}
	return scanLedgerEntries(rows)
}

// BySender lists entries where userId initiated the entry (sent).
func (db *DB) BySender(ctx context.Context, userID int64) ([]*LedgerEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries WHERE user_id = $1 AND type = $2 ORDER BY timestamp DESC`, ledgerSelectColumns)
	rows, err := db.Query(ctx, query, userID, LedgerTypeTransfer)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries by sender: %w", err)
	}
	return scanLedgerEntries(rows)
}

// ByRecipient lists entries addressed to any of a user's chain addresses
// (received), used to compute "received" across the user's three addresses.
func (db *DB) ByRecipient(ctx context.Context, addresses []string) ([]*LedgerEntry, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries WHERE recipient = ANY($1) AND type = $2 ORDER BY timestamp DESC`, ledgerSelectColumns)
	rows, err := db.Query(ctx, query, addresses, LedgerTypeTransfer)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries by recipient: %w", err)
	}
	return scanLedgerEntries(rows)
}

// ByUserIDAndTypeIn lists funding-family entries for a user.
func (db *DB) ByUserIDAndTypeIn(ctx context.Context, userID int64, types []LedgerType) ([]*LedgerEntry, error) {
	if len(types) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries WHERE user_id = $1 AND type = ANY($2) ORDER BY timestamp DESC`, ledgerSelectColumns)
	rows, err := db.Query(ctx, query, userID, types)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries by user and type: %w", err)
	}
	return scanLedgerEntries(rows)
}
