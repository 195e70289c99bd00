package keycodec

import "crypto/sha256"

// doubleSHA256Checksum returns the first 4 bytes of SHA256(SHA256(payload)),
// the checksum scheme shared by XRPL and Bitcoin-family base58check encodings.
func doubleSHA256Checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}
