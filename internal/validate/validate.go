// Package validate implements the validation gate that stands between a
// transfer request and the dispatcher: every rule here is pure and
// synchronous, grounded the same way internal/db/accounts.go validates
// wallet addresses before persisting them (regexp-based format checks),
// generalized to the full recipient/amount/token rule set and extended
// with EIP-55 checksum verification the way go-ethereum's own
// common.Address checksum logic works.
package validate

import (
	"errors"
	"strings"

	"chainvault/internal/chain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// Error codes returned by ValidateTransfer, matched against with errors.Is.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingRecipient  = errors.New("missing recipient")
	ErrUnsupportedToken  = errors.New("unsupported token")
	ErrInvalidEvmAddress = errors.New("invalid evm address")
)

const maxDecimalScale = 18

// ValidateTransfer applies the gate's rules in order, returning the first
// violation encountered. A nil error means the transfer may proceed to
// dispatch.
func ValidateTransfer(recipient string, amount decimal.Decimal, token string) error {
	if amount.Sign() <= 0 || amount.Exponent() < -maxDecimalScale {
		return ErrInvalidAmount
	}

	trimmed := strings.TrimSpace(recipient)
	if trimmed == "" {
		return ErrMissingRecipient
	}

	upperToken := strings.ToUpper(strings.TrimSpace(token))
	network := chain.NetworkForToken(upperToken)
	if network == "" {
		return ErrUnsupportedToken
	}

	if network == chain.Ethereum {
		if !isValidEVMAddress(trimmed) {
			return ErrInvalidEvmAddress
		}
	}
	// XRP and Solana addresses are not validated here by design — format
	// verification is left to the chain adapter at submit time.

	return nil
}

// isValidEVMAddress checks 40 hex chars (with or without a 0x prefix), and verifies EIP-55 mixed-case
// checksums only when the address is not all-lower or all-upper.
func isValidEVMAddress(address string) bool {
	if !common.IsHexAddress(address) {
		return false
	}

	hexPart := address
	if strings.HasPrefix(hexPart, "0x") || strings.HasPrefix(hexPart, "0X") {
		hexPart = hexPart[2:]
	}
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return true
	}

	return hexPart == checksumCase(hexPart)
}

// checksumCase reproduces go-ethereum's EIP-55 checksum casing for a lowercase
// hex string, independent of common.Address (which normalizes input rather
// than rejecting a mismatched checksum).
func checksumCase(lowerHex string) string {
	lower := strings.ToLower(lowerHex)
	hash := crypto.Keccak256([]byte(lower))

	out := make([]byte, len(lower))
	for i, c := range []byte(lower) {
		if c >= '0' && c <= '9' {
			out[i] = c
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		} else {
			out[i] = c
		}
	}
	return string(out)
}
