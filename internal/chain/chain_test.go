package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSynthetic_FaucetHash(t *testing.T) {
	assert.True(t, IsSynthetic("XRP_FAUCET_abc123"))
}

func TestIsSynthetic_RealHash(t *testing.T) {
	assert.False(t, IsSynthetic("0xdeadbeef"))
}

func TestIsSynthetic_ShortString(t *testing.T) {
	assert.False(t, IsSynthetic("XRP"))
}

func TestIsSynthetic_Empty(t *testing.T) {
	assert.False(t, IsSynthetic(""))
}
