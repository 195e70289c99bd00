// Package db provides PostgreSQL database operations for Chainvault
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrUserNotFound is returned when a user lookup misses.
var ErrUserNotFound = errors.New("user not found")

// User is a registered identity and its three chain credential triples.
// All three triples are populated eagerly at creation; only the XRP triple
// may later be replaced wholesale via RegenerateXRPWallet.
type User struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	EVMAddress         *string   `json:"evm_address,omitempty"`
	EVMPrivateKeyHex   *string   `json:"-"`
	XRPAddress         *string   `json:"xrp_address,omitempty"`
	XRPSeedHex         *string   `json:"-"`
	SolanaPublicKey    *string   `json:"solana_public_key,omitempty"`
	SolanaSecretKeyB64 *string   `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

const userSelectColumns = `id, username, evm_address, evm_private_key_hex,
       xrp_address, xrp_seed_hex, solana_public_key, solana_secret_key_b64, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.EVMAddress, &u.EVMPrivateKeyHex,
		&u.XRPAddress, &u.XRPSeedHex, &u.SolanaPublicKey, &u.SolanaSecretKeyB64,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user with all three credential triples already
// populated by the registry (credentials are generated eagerly, before this
// call, never inside the store).
func (db *DB) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (
			username, evm_address, evm_private_key_hex,
			xrp_address, xrp_seed_hex, solana_public_key, solana_secret_key_b64
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := db.QueryRow(ctx, query,
		u.Username, u.EVMAddress, u.EVMPrivateKeyHex,
		u.XRPAddress, u.XRPSeedHex, u.SolanaPublicKey, u.SolanaSecretKeyB64,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByUsername looks up a user by its unique username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userSelectColumns)
	return scanUser(db.QueryRow(ctx, query, username))
}

// GetUserByID looks up a user by its monotonic identifier.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userSelectColumns)
	return scanUser(db.QueryRow(ctx, query, id))
}

// RegenerateXRPWallet replaces a user's XRP credential triple wholesale.
// Per §5, this write is the only mutation a user's credentials ever
// undergo after creation, and callers must serialize it per user
// (the registry layer holds a per-user lock around the adapter-generate +
// this call so two concurrent regenerations can't interleave).
func (db *DB) RegenerateXRPWallet(ctx context.Context, userID int64, xrpAddress, xrpSeedHex string) error {
	query := `UPDATE users SET xrp_address = $2, xrp_seed_hex = $3 WHERE id = $1`
	result, err := db.ExecResult(ctx, query, userID, xrpAddress, xrpSeedHex)
	if err != nil {
		return fmt.Errorf("failed to regenerate xrp wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
