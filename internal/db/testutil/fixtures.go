package testutil

import (
	"fmt"
	"time"
)

// RandomWalletAddress generates a random Ethereum wallet address for testing.
func RandomWalletAddress() string {
	return fmt.Sprintf("0x%040x", time.Now().UnixNano())
}

// RandomUsername generates a unique username for testing.
func RandomUsername() string {
	return fmt.Sprintf("test-user-%d", time.Now().UnixNano())
}
