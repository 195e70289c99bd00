package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chainvault/internal/chain"
	"chainvault/internal/chainset"
	"chainvault/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal db.Database double: it answers ByStatus with a
// fixed set of PENDING entries and records every UpdateStatus call, which is
// the entire surface tick/resolve exercise. Every other method panics if
// called, since nothing else in the monitor loop should ever touch them.
type fakeStore struct {
	pending []*db.LedgerEntry
	updates map[int64]db.LedgerStatus
}

func newFakeStore(entries ...*db.LedgerEntry) *fakeStore {
	return &fakeStore{pending: entries, updates: map[int64]db.LedgerStatus{}}
}

func (f *fakeStore) ByStatus(ctx context.Context, status db.LedgerStatus) ([]*db.LedgerEntry, error) {
	if status != db.LedgerStatusPending {
		return nil, nil
	}
	return f.pending, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, newStatus db.LedgerStatus) error {
	f.updates[id] = newStatus
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error  { panic("not used by monitor") }
func (f *fakeStore) Close()                          { panic("not used by monitor") }
func (f *fakeStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	panic("not used by monitor")
}
func (f *fakeStore) Migrate(ctx context.Context) error { panic("not used by monitor") }
func (f *fakeStore) CreateUser(ctx context.Context, u *db.User) error {
	panic("not used by monitor")
}
func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	panic("not used by monitor")
}
func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*db.User, error) {
	panic("not used by monitor")
}
func (f *fakeStore) RegenerateXRPWallet(ctx context.Context, userID int64, xrpAddress, xrpSeedHex string) error {
	panic("not used by monitor")
}
func (f *fakeStore) Append(ctx context.Context, e *db.LedgerEntry) error {
	panic("not used by monitor")
}
func (f *fakeStore) ByID(ctx context.Context, id int64) (*db.LedgerEntry, error) {
	panic("not used by monitor")
}
func (f *fakeStore) ByHash(ctx context.Context, txHash string) (*db.LedgerEntry, error) {
	panic("not used by monitor")
}
func (f *fakeStore) BySender(ctx context.Context, userID int64) ([]*db.LedgerEntry, error) {
	panic("not used by monitor")
}
func (f *fakeStore) ByRecipient(ctx context.Context, addresses []string) ([]*db.LedgerEntry, error) {
	panic("not used by monitor")
}
func (f *fakeStore) ByUserIDAndTypeIn(ctx context.Context, userID int64, types []db.LedgerType) ([]*db.LedgerEntry, error) {
	panic("not used by monitor")
}

var _ db.Database = (*fakeStore)(nil)

// fakeAdapter scripts Receipt/LatestBlock responses for one network; the
// other three chain.Adapter methods are never exercised by the monitor loop.
type fakeAdapter struct {
	receipt     chain.Receipt
	receiptErr  error
	latestBlock uint64
	latestErr   error
}

func (f *fakeAdapter) Generate(ctx context.Context) (chain.Credential, error) {
	panic("not used by monitor")
}
func (f *fakeAdapter) Balance(ctx context.Context, address, token string) (decimal.Decimal, error) {
	panic("not used by monitor")
}
func (f *fakeAdapter) Transfer(ctx context.Context, fromKeyHex, to string, amount decimal.Decimal, token string) (string, error) {
	panic("not used by monitor")
}
func (f *fakeAdapter) Receipt(ctx context.Context, txHash string) (chain.Receipt, error) {
	return f.receipt, f.receiptErr
}
func (f *fakeAdapter) LatestBlock(ctx context.Context) (uint64, error) {
	return f.latestBlock, f.latestErr
}

var _ chain.Adapter = (*fakeAdapter)(nil)

// fakeResolver hands back one fixed adapter per network.
type fakeResolver struct {
	evm    chain.Adapter
	xrp    chain.Adapter
	solana chain.Adapter
}

func (f *fakeResolver) For(network chain.Network) (chain.Adapter, error) {
	switch network {
	case chain.Ethereum:
		return f.evm, nil
	case chain.XRP:
		return f.xrp, nil
	case chain.Solana:
		return f.solana, nil
	default:
		return nil, fmt.Errorf("fakeResolver: no adapter for %q", network)
	}
}

var _ chainset.Resolver = (*fakeResolver)(nil)

func pendingEntry(id int64, network chain.Network, hash string, age time.Duration) *db.LedgerEntry {
	h := hash
	return &db.LedgerEntry{
		ID:        id,
		UserID:    1,
		Recipient: "recipient",
		Amount:    decimal.NewFromInt(1),
		Token:     "ETH",
		Network:   network,
		TxHash:    &h,
		Status:    db.LedgerStatusPending,
		Type:      db.LedgerTypeTransfer,
		Timestamp: time.Now().Add(-age),
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.Period)
	assert.Equal(t, 10*time.Second, cfg.InitialDelay)
	assert.Equal(t, 24*time.Hour, cfg.MaxAge)
	assert.Equal(t, uint64(3), cfg.EVMConfirmations)
}

func TestNew_DefaultsNilLoggerToSlogDefault(t *testing.T) {
	l := New(nil, nil, DefaultConfig(), nil)
	assert.NotNil(t, l.log)
}

func TestStartStop_ReturnsBeforeInitialDelayElapses(t *testing.T) {
	// A long initial delay means Start's goroutine is parked on the
	// InitialDelay/ctx.Done()/stopCh select and never reaches tick(), which
	// would otherwise dereference a nil store.
	l := New(nil, nil, Config{InitialDelay: time.Hour, Period: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.Start(ctx)

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return promptly after Start()")
	}
}

func TestTick_EntryOlderThanMaxAgeTimesOut(t *testing.T) {
	entry := pendingEntry(1, chain.Ethereum, "0xabc", 25*time.Hour)
	store := newFakeStore(entry)
	resolver := &fakeResolver{}
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour}, nil)

	l.tick(context.Background())

	assert.Equal(t, db.LedgerStatusTimeout, store.updates[1])
}

func TestTick_SkipsEntriesWithSyntheticOrNilHash(t *testing.T) {
	synthetic := "XRP_FAUCET_rAddress_123456"
	entry := pendingEntry(1, chain.XRP, synthetic, time.Minute)
	entryNoHash := pendingEntry(2, chain.XRP, "", time.Minute)
	entryNoHash.TxHash = nil
	store := newFakeStore(entry, entryNoHash)
	resolver := &fakeResolver{}
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour}, nil)

	l.tick(context.Background())

	assert.Empty(t, store.updates, "synthetic/nil-hash entries must never be resolved against a chain adapter")
}

func TestTick_EVMConfirmsAfterConfirmationThreshold(t *testing.T) {
	entry := pendingEntry(1, chain.Ethereum, "0xabc", time.Minute)
	evmAdapter := &fakeAdapter{
		receipt:     chain.Receipt{Mined: true, OK: true, BlockNumber: 100},
		latestBlock: 102, // 102-100+1 = 3 confirmations
	}
	resolver := &fakeResolver{evm: evmAdapter}
	store := newFakeStore(entry)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour, EVMConfirmations: 3}, nil)

	l.tick(context.Background())

	assert.Equal(t, db.LedgerStatusConfirmed, store.updates[1])
}

func TestTick_EVMBelowConfirmationThresholdStaysPending(t *testing.T) {
	entry := pendingEntry(1, chain.Ethereum, "0xabc", time.Minute)
	evmAdapter := &fakeAdapter{
		receipt:     chain.Receipt{Mined: true, OK: true, BlockNumber: 100},
		latestBlock: 101, // only 2 confirmations
	}
	resolver := &fakeResolver{evm: evmAdapter}
	store := newFakeStore(entry)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour, EVMConfirmations: 3}, nil)

	l.tick(context.Background())

	_, updated := store.updates[1]
	assert.False(t, updated, "entry below the confirmation threshold must remain PENDING")
}

func TestTick_EVMReceiptNotOKMarksFailedWithoutConfirmationCheck(t *testing.T) {
	entry := pendingEntry(1, chain.Ethereum, "0xabc", time.Minute)
	evmAdapter := &fakeAdapter{receipt: chain.Receipt{Mined: true, OK: false, BlockNumber: 100}}
	resolver := &fakeResolver{evm: evmAdapter}
	store := newFakeStore(entry)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour, EVMConfirmations: 3}, nil)

	l.tick(context.Background())

	assert.Equal(t, db.LedgerStatusFailed, store.updates[1])
}

func TestTick_EVMUnminedReceiptStaysPending(t *testing.T) {
	entry := pendingEntry(1, chain.Ethereum, "0xabc", time.Minute)
	evmAdapter := &fakeAdapter{receipt: chain.Receipt{Mined: false}}
	resolver := &fakeResolver{evm: evmAdapter}
	store := newFakeStore(entry)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour, EVMConfirmations: 3}, nil)

	l.tick(context.Background())

	_, updated := store.updates[1]
	assert.False(t, updated)
}

func TestTick_SimpleNetworkOKReceiptConfirms(t *testing.T) {
	entry := pendingEntry(1, chain.XRP, "ABCDEF0123456789", time.Minute)
	xrpAdapter := &fakeAdapter{receipt: chain.Receipt{Mined: true, OK: true}}
	resolver := &fakeResolver{xrp: xrpAdapter}
	store := newFakeStore(entry)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour}, nil)

	l.tick(context.Background())

	assert.Equal(t, db.LedgerStatusConfirmed, store.updates[1])
}

func TestTick_SimpleNetworkFailedReceiptFails(t *testing.T) {
	entry := pendingEntry(1, chain.Solana, "deadbeef0123456789", time.Minute)
	solAdapter := &fakeAdapter{receipt: chain.Receipt{Mined: true, OK: false}}
	resolver := &fakeResolver{solana: solAdapter}
	store := newFakeStore(entry)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour}, nil)

	l.tick(context.Background())

	assert.Equal(t, db.LedgerStatusFailed, store.updates[1])
}

func TestTick_TransientReceiptLookupErrorLeavesEntryPending(t *testing.T) {
	entry := pendingEntry(1, chain.XRP, "ABCDEF0123456789", time.Minute)
	xrpAdapter := &fakeAdapter{receiptErr: chain.ErrTransient}
	resolver := &fakeResolver{xrp: xrpAdapter}
	store := newFakeStore(entry)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour}, nil)

	l.tick(context.Background())

	_, updated := store.updates[1]
	assert.False(t, updated, "a receipt lookup failure must leave the entry PENDING for the next tick")
}

func TestTick_OneEntryFailingDoesNotAbortTheBatch(t *testing.T) {
	stale := pendingEntry(1, chain.Ethereum, "0xabc", 25*time.Hour)
	confirmable := pendingEntry(2, chain.XRP, "ABCDEF0123456789", time.Minute)
	xrpAdapter := &fakeAdapter{receipt: chain.Receipt{Mined: true, OK: true}}
	resolver := &fakeResolver{xrp: xrpAdapter}
	store := newFakeStore(stale, confirmable)
	l := New(store, resolver, Config{MaxAge: 24 * time.Hour}, nil)

	l.tick(context.Background())

	require.Len(t, store.updates, 2)
	assert.Equal(t, db.LedgerStatusTimeout, store.updates[1])
	assert.Equal(t, db.LedgerStatusConfirmed, store.updates[2])
}

func TestStartStop_ContextCancelAlsoExitsTheLoop(t *testing.T) {
	l := New(nil, nil, Config{InitialDelay: time.Hour, Period: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop goroutine did not exit after context cancellation")
	}
}
