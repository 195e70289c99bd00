// Package registry implements the User Registry (C4): eager credential
// generation across all three chains on first login, and the one
// permitted post-creation mutation — XRP wallet regeneration — serialized
// per user. Grounded on internal/db/accounts.go's unique-constraint retry
// loop (CreateAccount's number-collision retry) and on
// CreateOrGetPaymentTransaction's get-or-create idiom, generalized from
// "idempotent payment creation" to "idempotent user login".
package registry

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"chainvault/internal/chain/evm"
	"chainvault/internal/chain/solana"
	"chainvault/internal/chain/xrpl"
	"chainvault/internal/db"
	"chainvault/internal/funding"
	"chainvault/internal/seedcache"

	"github.com/jackc/pgx/v5/pgconn"
)

// Registry creates users, generates their credentials, and owns the one
// serialized mutation (XRP regeneration) a user's credentials can undergo.
type Registry struct {
	store    *db.DB
	evm      *evm.Adapter
	xrpl     *xrpl.Adapter
	solana   *solana.Adapter
	funding  *funding.Recorder
	seeds    *seedcache.Cache
	userLock keyedMutex
}

// New constructs a Registry.
func New(store *db.DB, evmAdapter *evm.Adapter, xrplAdapter *xrpl.Adapter, solanaAdapter *solana.Adapter, recorder *funding.Recorder, seeds *seedcache.Cache) *Registry {
	return &Registry{
		store:   store,
		evm:     evmAdapter,
		xrpl:    xrplAdapter,
		solana:  solanaAdapter,
		funding: recorder,
		seeds:   seeds,
	}
}

// CreateUserWithWalletsAndFunding implements the createUserWithWalletsAndFunding
// verb (§6.1): on a brand-new username, generates all three credential
// triples eagerly, persists the user, then triggers funding. On an existing
// username, it returns the existing user untouched — "login" is idempotent.
func (r *Registry) CreateUserWithWalletsAndFunding(ctx context.Context, username string) (*db.User, error) {
	if existing, err := r.store.GetUserByUsername(ctx, username); err == nil {
		return existing, nil
	} else if !errors.Is(err, db.ErrUserNotFound) {
		return nil, fmt.Errorf("registry: lookup existing user: %w", err)
	}

	evmCred, err := r.evm.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: generate evm credentials: %w", err)
	}

	xrpCred, err := r.xrpl.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: generate xrp credentials: %w", err)
	}

	solCred, err := r.solana.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: generate solana credentials: %w", err)
	}

	user := &db.User{
		Username:           username,
		EVMAddress:         &evmCred.Address,
		EVMPrivateKeyHex:   &evmCred.KeyHex,
		XRPAddress:         &xrpCred.Address,
		XRPSeedHex:         &xrpCred.KeyHex,
		SolanaPublicKey:    &solCred.Address,
		SolanaSecretKeyB64: &solCred.KeyHex,
	}

	if err := r.store.CreateUser(ctx, user); err != nil {
		if isUniqueViolation(err) {
			// Lost a create race to a concurrent login with the same
			// username; the winner's row is authoritative.
			existing, getErr := r.store.GetUserByUsername(ctx, username)
			if getErr != nil {
				return nil, fmt.Errorf("registry: fetch user after create race: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("registry: create user: %w", err)
	}

	if entropy, decErr := hex.DecodeString(xrpCred.KeyHex); decErr == nil {
		r.seeds.Put(xrpCred.Address, entropy)
	}

	r.funding.FundNewUser(ctx, user)

	return user, nil
}

// RegenerateXrpWallet derives a fresh XRP credential triple and replaces the
// user's existing one wholesale. Per §5, this write is serialized per user.
func (r *Registry) RegenerateXrpWallet(ctx context.Context, userID int64) (*db.User, error) {
	unlock := r.userLock.Lock(userID)
	defer unlock()

	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("registry: fetch user: %w", err)
	}

	newCred, err := r.xrpl.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: generate xrp credentials: %w", err)
	}

	if err := r.store.RegenerateXRPWallet(ctx, userID, newCred.Address, newCred.KeyHex); err != nil {
		return nil, fmt.Errorf("registry: persist regenerated xrp wallet: %w", err)
	}

	if user.XRPAddress != nil {
		r.seeds.Evict(*user.XRPAddress)
	}
	if entropy, decErr := hex.DecodeString(newCred.KeyHex); decErr == nil {
		r.seeds.Put(newCred.Address, entropy)
	}

	return r.store.GetUserByID(ctx, userID)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// keyedMutex serializes operations per key (here, per user ID) without
// holding a single global lock across unrelated users.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (k *keyedMutex) Lock(key int64) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*sync.Mutex)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &sync.Mutex{}
		k.locks[key] = entry
	}
	k.mu.Unlock()

	entry.Lock()
	return entry.Unlock
}
