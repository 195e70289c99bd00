package xrpl

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"fmt"

	"github.com/decred/dcrd/crypto/ripemd160"
	"github.com/mr-tron/base58"
)

// rippleAlphabet is XRPL's base58 alphabet: the same 58 symbols as Bitcoin's
// but in a different order, chosen by Ripple so that XRPL addresses cannot
// be visually confused with Bitcoin addresses.
var rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

const (
	seedEntropyLen  = 16
	accountIDPrefix = 0x00
)

// GenerateEntropy returns fresh CSPRNG 16-byte ED25519 seed entropy.
func GenerateEntropy() ([]byte, error) {
	entropy := make([]byte, seedEntropyLen)
	if _, err := rand.Read(entropy); err != nil {
		return nil, fmt.Errorf("xrpl: generate entropy: %w", err)
	}
	return entropy, nil
}

// DeriveKeypair expands 16-byte seed entropy into an ED25519 keypair using
// the rippled algorithm: the private key seed is the first half of
// SHA512(entropy), and the public key is prefixed with 0xED per XRPL's
// "Ed25519" key-type convention so it cannot collide with secp256k1 keys.
func DeriveKeypair(entropy []byte) (priv ed25519.PrivateKey, pubWithPrefix []byte, err error) {
	if len(entropy) != seedEntropyLen {
		return nil, nil, fmt.Errorf("xrpl: entropy must be %d bytes", seedEntropyLen)
	}

	sum := sha512.Sum512(entropy)
	rootSeed := sum[:32]

	priv = ed25519.NewKeyFromSeed(rootSeed)
	pub := priv.Public().(ed25519.PublicKey)

	pubWithPrefix = make([]byte, 0, 33)
	pubWithPrefix = append(pubWithPrefix, 0xED)
	pubWithPrefix = append(pubWithPrefix, pub...)

	return priv, pubWithPrefix, nil
}

// AccountID derives the 20-byte account identifier from a prefixed public
// key: RIPEMD160(SHA256(pubkey)).
func AccountID(pubWithPrefix []byte) []byte {
	return ripemd160Hash(sha256Sum(pubWithPrefix))
}

// EncodeAddress base58check-encodes an account ID with the classic address
// type byte (0x00) and XRPL's alphabet.
func EncodeAddress(accountID []byte) string {
	payload := make([]byte, 0, 1+len(accountID)+4)
	payload = append(payload, accountIDPrefix)
	payload = append(payload, accountID...)
	checksum := doubleSHA256(payload)
	payload = append(payload, checksum...)
	return base58.EncodeAlphabet(payload, rippleAlphabet)
}

func ripemd160Hash(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}
