// Package chainset bundles one concrete adapter per network so the
// dispatcher, funding recorder, and monitor loop can look one up by the
// network a ledger entry or transfer request names, the same way the
// teacher's internal/db.Database interface lets callers address a single
// store without caring which concrete backend answers it.
package chainset

import (
	"fmt"

	"chainvault/internal/chain"
	"chainvault/internal/chain/evm"
	"chainvault/internal/chain/solana"
	"chainvault/internal/chain/xrpl"
)

// Resolver looks up the adapter responsible for a network. Set is the
// production implementation; tests substitute a fake to drive the monitor
// loop against scripted adapters without a live RPC endpoint.
type Resolver interface {
	For(network chain.Network) (chain.Adapter, error)
}

// Set holds the one adapter instance per network the process talks to.
type Set struct {
	EVM    *evm.Adapter
	XRP    *xrpl.Adapter
	Solana *solana.Adapter
}

var _ Resolver = (*Set)(nil)

// For returns the adapter responsible for a network.
func (s *Set) For(network chain.Network) (chain.Adapter, error) {
	switch network {
	case chain.Ethereum:
		return s.EVM, nil
	case chain.XRP:
		return s.XRP, nil
	case chain.Solana:
		return s.Solana, nil
	default:
		return nil, fmt.Errorf("chainset: no adapter for network %q", network)
	}
}
