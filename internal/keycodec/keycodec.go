// Package keycodec decodes and migrates the XRP seed string formats found
// in the wild: a base58 XRPL family seed, 32-hex raw entropy, and two
// legacy-corruption shapes that must be rejected with an actionable error
// rather than silently mis-parsed. The codec is pure — no I/O, no chain
// calls — in the style of the teacher's internal/usdc package.
package keycodec

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

// ErrRegenerateWallet means the stored string is a recognized corruption
// (an address stored where a seed belonged, or a stringified debug dump)
// that cannot be recovered — the caller must regenerate the XRP wallet.
var ErrRegenerateWallet = errors.New("stored seed is corrupted, regenerate wallet")

// ErrUnsupportedFormat means the string matches none of the known shapes.
var ErrUnsupportedFormat = errors.New("unsupported seed format")

// seedEntropyLen is the byte length of ED25519 seed entropy (16 bytes = 32 hex chars).
const seedEntropyLen = 16

// rippleAlphabet is XRPL's base58 alphabet, under which the 0x21 family
// seed type byte encodes to a leading 's'.
var rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

// Decode parses a stored seed string into raw 16-byte ED25519 entropy.
func Decode(s string) ([]byte, error) {
	switch {
	case strings.HasPrefix(s, "r"):
		// Legacy bug: an address was persisted where a seed belonged.
		return nil, ErrRegenerateWallet
	case strings.HasPrefix(s, "Seed{"):
		// Corrupted stringified debug output (e.g. "Seed{value=[redacted], destroyed=false}").
		return nil, ErrRegenerateWallet
	case isHexEntropy(s):
		return hex.DecodeString(s)
	case strings.HasPrefix(s, "s"):
		return decodeBase58Secret(s)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// isHexEntropy reports whether s is exactly 32 lowercase/uppercase hex chars.
func isHexEntropy(s string) bool {
	if len(s) != seedEntropyLen*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// decodeBase58Secret decodes an XRPL family seed ("s..." base58 body) into
// its raw 16-byte entropy. XRPL family seeds are the payload of a
// base58-with-checksum encoding prefixed by a one-byte family seed type
// (0x21) and suffixed by a 4-byte checksum; this codec only needs the
// entropy payload, which sits between them.
func decodeBase58Secret(s string) ([]byte, error) {
	decoded, err := base58.DecodeAlphabet(s, rippleAlphabet)
	if err != nil {
		return nil, ErrUnsupportedFormat
	}
	// type byte + 16-byte entropy + 4-byte checksum = 21 bytes.
	if len(decoded) != 1+seedEntropyLen+4 {
		return nil, ErrUnsupportedFormat
	}
	return decoded[1 : 1+seedEntropyLen], nil
}

// EncodeHex encodes raw entropy as the 32-hex form, the canonical
// persisted representation for freshly generated wallets (§3.1).
func EncodeHex(entropy []byte) string {
	return hex.EncodeToString(entropy)
}

// EncodeBase58Secret encodes raw entropy as an XRPL family seed string
// ("s..."), the round-trip partner of decodeBase58Secret.
func EncodeBase58Secret(entropy []byte) (string, error) {
	if len(entropy) != seedEntropyLen {
		return "", errors.New("keycodec: entropy must be 16 bytes")
	}
	payload := make([]byte, 0, 1+seedEntropyLen+4)
	payload = append(payload, 0x21)
	payload = append(payload, entropy...)
	checksum := doubleSHA256Checksum(payload)
	payload = append(payload, checksum...)
	return base58.EncodeAlphabet(payload, rippleAlphabet), nil
}
