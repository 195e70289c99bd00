package evm

import (
	"context"
	"math/big"
	"testing"

	"chainvault/internal/chain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(context.Background(), Config{RPCURL: "http://localhost:1", ChainID: big.NewInt(1)})
	require.NoError(t, err)
	return a
}

func TestNew_RejectsUnparseableURL(t *testing.T) {
	_, err := New(context.Background(), Config{RPCURL: "://not-a-url"})
	assert.ErrorIs(t, err, chain.ErrTransient)
}

func TestGenerate_ProducesHexAddressAndKey(t *testing.T) {
	a := testAdapter(t)
	cred, err := a.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, common.IsHexAddress(cred.Address))
	assert.Len(t, cred.KeyHex, 64)
}

func TestGenerate_ProducesUniqueKeypairs(t *testing.T) {
	a := testAdapter(t)
	cred1, err := a.Generate(context.Background())
	require.NoError(t, err)
	cred2, err := a.Generate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, cred1.Address, cred2.Address)
}

func TestBalance_RejectsUnconfiguredToken(t *testing.T) {
	a := testAdapter(t)
	_, err := a.Balance(context.Background(), "0x0000000000000000000000000000000000000000", "TEST-USDC")
	assert.ErrorIs(t, err, chain.ErrPermanent)
}

func TestTransfer_RejectsInvalidPrivateKey(t *testing.T) {
	a := testAdapter(t)
	_, err := a.Transfer(context.Background(), "not-hex", "0x0000000000000000000000000000000000000000", decimal.NewFromInt(1), "ETH")
	assert.ErrorIs(t, err, chain.ErrPermanent)
}

func TestMint_RejectsWhenNoMinterKeyConfigured(t *testing.T) {
	a := testAdapter(t)
	_, err := a.Mint(context.Background(), "0x0000000000000000000000000000000000000000", decimal.NewFromInt(1), "TEST-USDC")
	assert.ErrorIs(t, err, chain.ErrPermanent)
}

func TestMint_RejectsUnconfiguredToken(t *testing.T) {
	a, err := New(context.Background(), Config{RPCURL: "http://localhost:1", ChainID: big.NewInt(1), MinterKey: "0000000000000000000000000000000000000000000000000000000000000001"})
	require.NoError(t, err)

	_, err = a.Mint(context.Background(), "0x0000000000000000000000000000000000000000", decimal.NewFromInt(1), "TEST-USDC")
	assert.ErrorIs(t, err, chain.ErrPermanent)
}

func TestAdapter_SatisfiesChainInterface(t *testing.T) {
	a := testAdapter(t)
	var _ chain.Adapter = a
}
