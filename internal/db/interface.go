package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Database defines the interface for all database operations.
// This interface enables substituting a fake store in the monitor loop's unit tests.
type Database interface {
	// Connection management
	Ping(ctx context.Context) error
	Close()
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Migrate(ctx context.Context) error

	// User operations (C4: User Registry persistence)
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	RegenerateXRPWallet(ctx context.Context, userID int64, xrpAddress, xrpSeedHex string) error

	// Ledger operations (C3: Ledger Store)
	Append(ctx context.Context, e *LedgerEntry) error
	UpdateStatus(ctx context.Context, id int64, newStatus LedgerStatus) error
	ByID(ctx context.Context, id int64) (*LedgerEntry, error)
	ByHash(ctx context.Context, txHash string) (*LedgerEntry, error)
	ByStatus(ctx context.Context, status LedgerStatus) ([]*LedgerEntry, error)
	BySender(ctx context.Context, userID int64) ([]*LedgerEntry, error)
	ByRecipient(ctx context.Context, addresses []string) ([]*LedgerEntry, error)
	ByUserIDAndTypeIn(ctx context.Context, userID int64, types []LedgerType) ([]*LedgerEntry, error)
}

// Ensure DB implements Database interface
var _ Database = (*DB)(nil)
