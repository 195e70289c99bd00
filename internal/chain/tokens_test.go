package chain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecimalsForToken(t *testing.T) {
	assert.Equal(t, int32(18), DecimalsForToken("ETH"))
	assert.Equal(t, int32(6), DecimalsForToken("USDC"))
	assert.Equal(t, int32(6), DecimalsForToken("TEST-USDC"))
	assert.Equal(t, int32(18), DecimalsForToken("TEST-EURC"))
	assert.Equal(t, int32(6), DecimalsForToken("XRP"))
	assert.Equal(t, int32(9), DecimalsForToken("SOL"))
}

func TestDecimalsForToken_Unknown(t *testing.T) {
	assert.Equal(t, int32(0), DecimalsForToken("DOGE"))
}

func TestNetworkForToken(t *testing.T) {
	assert.Equal(t, Ethereum, NetworkForToken("ETH"))
	assert.Equal(t, Ethereum, NetworkForToken("USDC"))
	assert.Equal(t, Ethereum, NetworkForToken("TEST-USDC"))
	assert.Equal(t, XRP, NetworkForToken("XRP"))
	assert.Equal(t, Solana, NetworkForToken("SOL"))
}

func TestNetworkForToken_Unknown(t *testing.T) {
	assert.Equal(t, Network(""), NetworkForToken("DOGE"))
}

func TestAllowedNetworkTokens_Matrix(t *testing.T) {
	assert.True(t, AllowedNetworkTokens[Ethereum]["ETH"])
	assert.True(t, AllowedNetworkTokens[Ethereum]["USDC"])
	assert.False(t, AllowedNetworkTokens[Ethereum]["XRP"])
	assert.True(t, AllowedNetworkTokens[XRP]["XRP"])
	assert.False(t, AllowedNetworkTokens[XRP]["SOL"])
	assert.True(t, AllowedNetworkTokens[Solana]["SOL"])
}

func TestPow10(t *testing.T) {
	assert.Equal(t, "1", pow10(0).String())
	assert.Equal(t, "1000000", pow10(6).String())
	assert.Equal(t, "1000000000000000000", pow10(18).String())
}

func TestPow10_MatchesDecimalScale(t *testing.T) {
	for _, token := range []string{"ETH", "USDC", "XRP", "SOL"} {
		scale := decimal.New(1, DecimalsForToken(token))
		assert.Equal(t, scale.BigInt().String(), pow10(DecimalsForToken(token)).String())
	}
}
