// Package monitor implements the Monitor Loop (C7): a background ticker
// that polls PENDING ledger entries and resolves each to CONFIRMED, FAILED,
// or TIMEOUT by asking the owning chain adapter for a receipt. Grounded on
// internal/settlement/worker.go's ticker/select/stopCh/WaitGroup shape and
// its per-item error isolation via continue, generalized from "retry a
// failed settlement" to "poll a pending transfer for finality".
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chainvault/internal/chain"
	"chainvault/internal/chainset"
	"chainvault/internal/db"
)

// Config controls the loop's timing and EVM confirmation threshold (§6.4).
type Config struct {
	Period           time.Duration
	InitialDelay     time.Duration
	MaxAge           time.Duration
	EVMConfirmations uint64
}

// DefaultConfig returns the timing values spec §4.8 specifies.
func DefaultConfig() Config {
	return Config{
		Period:           30 * time.Second,
		InitialDelay:     10 * time.Second,
		MaxAge:           24 * time.Hour,
		EVMConfirmations: 3,
	}
}

// Loop polls PENDING ledger entries to finality.
type Loop struct {
	store  db.Database
	chains chainset.Resolver
	cfg    Config
	log    *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Loop.
func New(store db.Database, chains chainset.Resolver, cfg Config, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		store:  store,
		chains: chains,
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Start runs the loop in a background goroutine: the first tick fires after
// cfg.InitialDelay, then every cfg.Period thereafter, until ctx is canceled
// or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(ctx)
	}()
}

// Stop signals the loop to exit and waits for its current tick to finish.
func (l *Loop) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context) {
	select {
	case <-time.After(l.cfg.InitialDelay):
	case <-ctx.Done():
		return
	case <-l.stopCh:
		return
	}

	l.tick(ctx)

	ticker := time.NewTicker(l.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick resolves every PENDING entry once. A single entry's failure is
// logged and skipped; it never aborts the rest of the batch.
func (l *Loop) tick(ctx context.Context) {
	entries, err := l.store.ByStatus(ctx, db.LedgerStatusPending)
	if err != nil {
		l.log.Error("monitor: list pending entries", "error", err)
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		default:
		}
		l.resolve(ctx, entry)
	}
}

func (l *Loop) resolve(ctx context.Context, entry *db.LedgerEntry) {
	if time.Since(entry.Timestamp) > l.cfg.MaxAge {
		if err := l.store.UpdateStatus(ctx, entry.ID, db.LedgerStatusTimeout); err != nil {
			l.log.Error("monitor: mark entry timed out", "entry_id", entry.ID, "error", err)
		}
		return
	}

	if entry.TxHash == nil || chain.IsSynthetic(*entry.TxHash) {
		// Faucet funding's synthetic hash is not a pollable transaction
		// identifier; it was already recorded CONFIRMED or FAILED at
		// write time and should never reach PENDING, but skip defensively.
		return
	}

	adapter, err := l.chains.For(entry.Network)
	if err != nil {
		l.log.Error("monitor: resolve adapter", "entry_id", entry.ID, "network", entry.Network, "error", err)
		return
	}

	receipt, err := adapter.Receipt(ctx, *entry.TxHash)
	if err != nil {
		// Transient lookup failures are left PENDING for the next tick.
		l.log.Warn("monitor: receipt lookup failed", "entry_id", entry.ID, "error", err)
		return
	}
	if !receipt.Mined {
		return
	}

	switch entry.Network {
	case chain.Ethereum:
		l.resolveEVM(ctx, entry, receipt)
	default:
		l.resolveSimple(ctx, entry, receipt)
	}
}

// resolveEVM additionally requires cfg.EVMConfirmations blocks of depth
// before marking CONFIRMED, since a mined-but-shallow EVM block can still
// be reorganized away.
func (l *Loop) resolveEVM(ctx context.Context, entry *db.LedgerEntry, receipt chain.Receipt) {
	if !receipt.OK {
		l.updateStatus(ctx, entry.ID, db.LedgerStatusFailed)
		return
	}

	adapter, err := l.chains.For(chain.Ethereum)
	if err != nil {
		l.log.Error("monitor: resolve evm adapter", "entry_id", entry.ID, "error", err)
		return
	}
	latest, err := adapter.LatestBlock(ctx)
	if err != nil {
		l.log.Warn("monitor: latest block lookup failed", "entry_id", entry.ID, "error", err)
		return
	}
	if latest < receipt.BlockNumber {
		return
	}
	confirmations := latest - receipt.BlockNumber + 1
	if confirmations < l.cfg.EVMConfirmations {
		return
	}
	l.updateStatus(ctx, entry.ID, db.LedgerStatusConfirmed)
}

// resolveSimple handles XRP and Solana, whose Receipt already reports
// finality without a confirmation-depth check.
func (l *Loop) resolveSimple(ctx context.Context, entry *db.LedgerEntry, receipt chain.Receipt) {
	if receipt.OK {
		l.updateStatus(ctx, entry.ID, db.LedgerStatusConfirmed)
		return
	}
	l.updateStatus(ctx, entry.ID, db.LedgerStatusFailed)
}

func (l *Loop) updateStatus(ctx context.Context, id int64, status db.LedgerStatus) {
	if err := l.store.UpdateStatus(ctx, id, status); err != nil {
		l.log.Error("monitor: update status", "entry_id", id, "status", status, "error", err)
	}
}
