// Package evm implements the chain.Adapter interface for Ethereum-family
// chains over JSON-RPC, grounded on the teacher's internal/wallet package:
// raw eth_call for ERC-20 reads, go-ethereum's crypto/types for signing.
package evm

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"chainvault/internal/chain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// requestTimeout bounds every RPC call; exceeding it surfaces as a transient error.
const requestTimeout = 10 * time.Second

var (
	balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
	transferSelector  = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
	mintSelector      = crypto.Keccak256([]byte("mint(address,uint256)"))[:4]
)

// TokenAddresses maps token symbols to their deployed ERC-20 contract
// addresses, configured via evm.token.*.address (§6.4). "ETH" has no entry
// since it is the chain's native asset.
type TokenAddresses map[string]common.Address

// Config configures an Adapter.
type Config struct {
	RPCURL    string
	ChainID   *big.Int
	Tokens    TokenAddresses
	MinterKey string // hex-encoded private key authorized to call mint(); optional
}

// Adapter implements chain.Adapter for an EVM-compatible chain.
type Adapter struct {
	cfg    Config
	client *ethclient.Client
}

// New dials the configured RPC endpoint.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial evm rpc: %v", chain.ErrTransient, err)
	}
	return &Adapter{cfg: cfg, client: client}, nil
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}

// Generate mints a fresh secp256k1 keypair; address is the last 20 bytes of
// Keccak256(pubkey), the same derivation as crypto.PubkeyToAddress.
func (a *Adapter) Generate(ctx context.Context) (chain.Credential, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return chain.Credential{}, fmt.Errorf("%w: generate evm key: %v", chain.ErrPermanent, err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	keyHex := hex.EncodeToString(crypto.FromECDSA(privateKey))
	return chain.Credential{Address: address.Hex(), KeyHex: keyHex}, nil
}

// Balance returns the native ETH balance, or an ERC-20 balanceOf for any
// other configured token, as a human-readable decimal.
func (a *Adapter) Balance(ctx context.Context, address, token string) (decimal.Decimal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	addr := common.HexToAddress(address)

	if token == "ETH" {
		wei, err := a.client.BalanceAt(ctx, addr, nil)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: eth_getBalance: %v", chain.ErrTransient, err)
		}
		return chain.FromAtomic(wei, token), nil
	}

	tokenAddr, ok := a.cfg.Tokens[token]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no contract address configured for token %s", chain.ErrPermanent, token)
	}

	data := append(append([]byte{}, balanceOfSelector...), common.LeftPadBytes(addr.Bytes(), 32)...)
	result, err := a.ethCall(ctx, tokenAddr, data)
	if err != nil {
		return decimal.Zero, err
	}

	balance := new(big.Int).SetBytes(result)
	return chain.FromAtomic(balance, token), nil
}

// ethCall performs a raw eth_call, mirroring wallet.go's GetBalance method.
func (a *Adapter) ethCall(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := map[string]interface{}{
		"to":   to.Hex(),
		"data": "0x" + hex.EncodeToString(data),
	}

	var result string
	if err := a.client.Client().CallContext(ctx, &result, "eth_call", msg, "latest"); err != nil {
		return nil, fmt.Errorf("%w: eth_call: %v", chain.ErrTransient, err)
	}

	return hex.DecodeString(strings.TrimPrefix(result, "0x"))
}

// Transfer signs and submits a native ETH transfer or an ERC-20 transfer().
func (a *Adapter) Transfer(ctx context.Context, fromKeyHex, to string, amount decimal.Decimal, token string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(fromKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("%w: invalid evm private key: %v", chain.ErrPermanent, err)
	}
	defer zeroKey(privateKey)

	from := crypto.PubkeyToAddress(privateKey.PublicKey)

	nonce, err := a.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("%w: get nonce: %v", chain.ErrTransient, err)
	}

	gasPrice, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: get gas price: %v", chain.ErrTransient, err)
	}

	var toAddr common.Address
	var value *big.Int
	var data []byte

	if token == "ETH" {
		toAddr = common.HexToAddress(to)
		value = chain.ToAtomic(amount, token)
	} else {
		tokenAddr, ok := a.cfg.Tokens[token]
		if !ok {
			return "", fmt.Errorf("%w: no contract address configured for token %s", chain.ErrPermanent, token)
		}
		toAddr = tokenAddr
		value = big.NewInt(0)
		data = append(append([]byte{}, transferSelector...),
			common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32)...)
		data = append(data, common.LeftPadBytes(chain.ToAtomic(amount, token).Bytes(), 32)...)
	}

	gasLimit := uint64(21000)
	if len(data) > 0 {
		gasLimit = 100000
	}

	legacyTx := &types.LegacyTx{
		Nonce:    nonce,
		To:       &toAddr,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	}

	signer := types.NewEIP155Signer(a.cfg.ChainID)
	signedTx, err := types.SignNewTx(privateKey, signer, legacyTx)
	if err != nil {
		return "", fmt.Errorf("%w: sign transaction: %v", chain.ErrPermanent, err)
	}

	if err := a.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("%w: eth_sendRawTransaction: %v", chain.ErrTransient, err)
	}

	return signedTx.Hash().Hex(), nil
}

// Mint calls mint(address,uint256) on a test token using the configured
// minter key. Used by the funding recorder for TEST-USDC/TEST-EURC.
func (a *Adapter) Mint(ctx context.Context, to string, amount decimal.Decimal, token string) (string, error) {
	if a.cfg.MinterKey == "" {
		return "", fmt.Errorf("%w: no minter key configured", chain.ErrPermanent)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(a.cfg.MinterKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("%w: invalid minter key: %v", chain.ErrPermanent, err)
	}
	defer zeroKey(privateKey)

	tokenAddr, ok := a.cfg.Tokens[token]
	if !ok {
		return "", fmt.Errorf("%w: no contract address configured for token %s", chain.ErrPermanent, token)
	}

	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	nonce, err := a.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("%w: get nonce: %v", chain.ErrTransient, err)
	}
	gasPrice, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: get gas price: %v", chain.ErrTransient, err)
	}

	data := append(append([]byte{}, mintSelector...),
		common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(chain.ToAtomic(amount, token).Bytes(), 32)...)

	legacyTx := &types.LegacyTx{
		Nonce:    nonce,
		To:       &tokenAddr,
		Value:    big.NewInt(0),
		Gas:      100000,
		GasPrice: gasPrice,
		Data:     data,
	}

	signer := types.NewEIP155Signer(a.cfg.ChainID)
	signedTx, err := types.SignNewTx(privateKey, signer, legacyTx)
	if err != nil {
		return "", fmt.Errorf("%w: sign mint transaction: %v", chain.ErrPermanent, err)
	}

	if err := a.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("%w: eth_sendRawTransaction (mint): %v", chain.ErrTransient, err)
	}

	return signedTx.Hash().Hex(), nil
}

// Receipt reports whether a transaction is mined and whether it succeeded.
// A "not found" result is not treated as an error: the transaction may
// still be pending.
func (a *Adapter) Receipt(ctx context.Context, txHash string) (chain.Receipt, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	receipt, err := a.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethclient.NotFound) {
			return chain.Receipt{Mined: false}, nil
		}
		return chain.Receipt{}, fmt.Errorf("%w: eth_getTransactionReceipt: %v", chain.ErrTransient, err)
	}

	return chain.Receipt{
		Mined:       true,
		OK:          receipt.Status == types.ReceiptStatusSuccessful,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

// LatestBlock returns the current chain height, used for confirmation counting.
func (a *Adapter) LatestBlock(ctx context.Context) (uint64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := a.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: eth_blockNumber: %v", chain.ErrTransient, err)
	}
	return n, nil
}

// zeroKey clears the private scalar from memory after use, mirroring
// wallet.go's zeroKey hygiene.
func zeroKey(key *ecdsa.PrivateKey) {
	if key != nil && key.D != nil {
		key.D.SetUint64(0)
	}
}

var _ chain.Adapter = (*Adapter)(nil)
