package xrpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEntropy_Length(t *testing.T) {
	entropy, err := GenerateEntropy()
	require.NoError(t, err)
	assert.Len(t, entropy, seedEntropyLen)
}

func TestGenerateEntropy_NotAllZero(t *testing.T) {
	entropy, err := GenerateEntropy()
	require.NoError(t, err)

	allZero := true
	for _, b := range entropy {
		if b != 0 {
			allZero = false
			break
		}
	}
	assert.False(t, allZero, "CSPRNG output should not be all zero")
}

func TestDeriveKeypair_RejectsWrongLength(t *testing.T) {
	_, _, err := DeriveKeypair(make([]byte, 8))
	assert.Error(t, err)
}

func TestDeriveKeypair_Deterministic(t *testing.T) {
	entropy := make([]byte, seedEntropyLen)
	for i := range entropy {
		entropy[i] = byte(i)
	}

	priv1, pub1, err := DeriveKeypair(entropy)
	require.NoError(t, err)
	priv2, pub2, err := DeriveKeypair(entropy)
	require.NoError(t, err)

	assert.Equal(t, priv1, priv2)
	assert.Equal(t, pub1, pub2)
}

func TestDeriveKeypair_PublicKeyPrefixedWithED(t *testing.T) {
	entropy, err := GenerateEntropy()
	require.NoError(t, err)

	_, pubWithPrefix, err := DeriveKeypair(entropy)
	require.NoError(t, err)

	require.Len(t, pubWithPrefix, 33)
	assert.Equal(t, byte(0xED), pubWithPrefix[0])
}

func TestAccountID_Length(t *testing.T) {
	entropy, err := GenerateEntropy()
	require.NoError(t, err)
	_, pubWithPrefix, err := DeriveKeypair(entropy)
	require.NoError(t, err)

	accountID := AccountID(pubWithPrefix)
	assert.Len(t, accountID, 20)
}

func TestEncodeAddress_RippleAlphabetAndPrefix(t *testing.T) {
	entropy, err := GenerateEntropy()
	require.NoError(t, err)
	_, pubWithPrefix, err := DeriveKeypair(entropy)
	require.NoError(t, err)

	address := EncodeAddress(AccountID(pubWithPrefix))
	require.NotEmpty(t, address)
	assert.Equal(t, byte('r'), address[0], "classic XRPL addresses always start with 'r'")
}

func TestEncodeAddress_Deterministic(t *testing.T) {
	entropy := make([]byte, seedEntropyLen)
	for i := range entropy {
		entropy[i] = byte(i * 3)
	}
	_, pubWithPrefix, err := DeriveKeypair(entropy)
	require.NoError(t, err)
	accountID := AccountID(pubWithPrefix)

	assert.Equal(t, EncodeAddress(accountID), EncodeAddress(accountID))
}
