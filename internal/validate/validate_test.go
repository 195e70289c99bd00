package validate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateTransfer_Rules(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		amount    decimal.Decimal
		token     string
		wantErr   error
	}{
		{
			name:      "valid evm transfer",
			recipient: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			amount:    decimal.RequireFromString("1.5"),
			token:     "usdc",
			wantErr:   nil,
		},
		{
			name:      "zero amount rejected",
			recipient: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			amount:    decimal.Zero,
			token:     "USDC",
			wantErr:   ErrInvalidAmount,
		},
		{
			name:      "negative amount rejected",
			recipient: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			amount:    decimal.RequireFromString("-1"),
			token:     "USDC",
			wantErr:   ErrInvalidAmount,
		},
		{
			name:      "scale beyond 18 rejected",
			recipient: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			amount:    decimal.RequireFromString("0.0000000000000000001"),
			token:     "USDC",
			wantErr:   ErrInvalidAmount,
		},
		{
			name:      "blank recipient rejected",
			recipient: "   ",
			amount:    decimal.RequireFromString("1"),
			token:     "USDC",
			wantErr:   ErrMissingRecipient,
		},
		{
			name:      "unsupported token rejected",
			recipient: "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
			amount:    decimal.RequireFromString("1"),
			token:     "DOGE",
			wantErr:   ErrUnsupportedToken,
		},
		{
			name:      "malformed evm address rejected",
			recipient: "0xnothex",
			amount:    decimal.RequireFromString("1"),
			token:     "ETH",
			wantErr:   ErrInvalidEvmAddress,
		},
		{
			name:      "mixed-case evm address with bad checksum rejected",
			recipient: "0x5aAeb6053f3e94c9b9A09f33669435E7Ef1BeAed",
			amount:    decimal.RequireFromString("1"),
			token:     "ETH",
			wantErr:   ErrInvalidEvmAddress,
		},
		{
			name:      "all-lowercase evm address skips checksum",
			recipient: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			amount:    decimal.RequireFromString("1"),
			token:     "ETH",
			wantErr:   nil,
		},
		{
			name:      "xrp address is not evm-validated",
			recipient: "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
			amount:    decimal.RequireFromString("1"),
			token:     "xrp",
			wantErr:   nil,
		},
		{
			name:      "solana address is not evm-validated",
			recipient: "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1",
			amount:    decimal.RequireFromString("1"),
			token:     "SOL",
			wantErr:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransfer(tc.recipient, tc.amount, tc.token)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
		})
	}
}
