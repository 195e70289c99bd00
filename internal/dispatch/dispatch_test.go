package dispatch

import (
	"context"
	"testing"

	"chainvault/internal/chain"
	"chainvault/internal/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestSenderKey_EVM(t *testing.T) {
	user := &db.User{ID: 1, EVMPrivateKeyHex: strPtr("deadbeef")}
	key, err := senderKey(user, chain.Ethereum)
	assert.NoError(t, err)
	assert.Equal(t, "deadbeef", key)
}

func TestSenderKey_XRP(t *testing.T) {
	user := &db.User{ID: 1, XRPSeedHex: strPtr("cafebabe")}
	key, err := senderKey(user, chain.XRP)
	assert.NoError(t, err)
	assert.Equal(t, "cafebabe", key)
}

func TestSenderKey_Solana(t *testing.T) {
	user := &db.User{ID: 1, SolanaSecretKeyB64: strPtr("c2VjcmV0")}
	key, err := senderKey(user, chain.Solana)
	assert.NoError(t, err)
	assert.Equal(t, "c2VjcmV0", key)
}

func TestSenderKey_MissingEVMCredential(t *testing.T) {
	user := &db.User{ID: 1}
	_, err := senderKey(user, chain.Ethereum)
	assert.Error(t, err)
}

func TestSenderKey_MissingXRPCredential(t *testing.T) {
	user := &db.User{ID: 1}
	_, err := senderKey(user, chain.XRP)
	assert.Error(t, err)
}

func TestSenderKey_MissingSolanaCredential(t *testing.T) {
	user := &db.User{ID: 1}
	_, err := senderKey(user, chain.Solana)
	assert.Error(t, err)
}

func TestSenderKey_UnknownNetwork(t *testing.T) {
	user := &db.User{ID: 1}
	_, err := senderKey(user, chain.Network("BITCOIN"))
	assert.Error(t, err)
}

func TestDispatch_RejectsInvalidAmountBeforeTouchingChainOrStore(t *testing.T) {
	d := New(nil, nil)
	user := &db.User{ID: 1, EVMPrivateKeyHex: strPtr("deadbeef")}

	_, err := d.Dispatch(context.Background(), user, "0x0000000000000000000000000000000000000000", decimal.Zero, "ETH")
	assert.Error(t, err, "a zero amount must be rejected by the validation gate before any chain/store access")
}

func TestDispatch_RejectsUnsupportedTokenBeforeTouchingChainOrStore(t *testing.T) {
	d := New(nil, nil)
	user := &db.User{ID: 1}

	_, err := d.Dispatch(context.Background(), user, "someone", decimal.NewFromInt(1), "DOGE")
	assert.Error(t, err)
}
