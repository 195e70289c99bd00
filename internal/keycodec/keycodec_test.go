package keycodec

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_HexEntropy(t *testing.T) {
	entropy := make([]byte, seedEntropyLen)
	_, err := rand.Read(entropy)
	require.NoError(t, err)

	hexSeed := EncodeHex(entropy)
	decoded, err := Decode(hexSeed)
	require.NoError(t, err)
	assert.Equal(t, entropy, decoded)
}

func TestDecode_Base58RoundTrip(t *testing.T) {
	entropy := make([]byte, seedEntropyLen)
	_, err := rand.Read(entropy)
	require.NoError(t, err)

	encoded, err := EncodeBase58Secret(entropy)
	require.NoError(t, err)
	require.True(t, len(encoded) > 0 && encoded[0] == 's')

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, entropy, decoded)
}

func TestDecode_LegacyAddressStoredAsSeed(t *testing.T) {
	_, err := Decode("rN7n7otQDd6FczFgLdSqTcMwpjJJHEQQ6n")
	assert.ErrorIs(t, err, ErrRegenerateWallet)
}

func TestDecode_CorruptedDebugOutput(t *testing.T) {
	_, err := Decode("Seed{value=[redacted], destroyed=false}")
	assert.ErrorIs(t, err, ErrRegenerateWallet)
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, err := Decode("not-a-seed-at-all")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecode_EmptyString(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
