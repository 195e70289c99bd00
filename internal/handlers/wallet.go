// Package handlers implements the HTTP surface over the five verbs of the
// wallet orchestration engine (§6.1), grounded on the teacher's handler
// shape: a struct holding its dependencies, one RegisterRoutes method, one
// exported method per endpoint, request/response structs local to the file.
package handlers

import (
	"errors"
	"strconv"
	"strings"

	"chainvault/internal/chain"
	"chainvault/internal/db"
	"chainvault/internal/dispatch"
	"chainvault/internal/funding"
	"chainvault/internal/registry"
	"chainvault/internal/validate"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
)

// WalletHandler serves user creation, transfers, transaction history,
// wallet regeneration, and test-token funding.
type WalletHandler struct {
	registry *registry.Registry
	dispatch *dispatch.Dispatcher
	funding  *funding.Recorder
	store    *db.DB
}

// NewWalletHandler constructs a WalletHandler.
func NewWalletHandler(reg *registry.Registry, disp *dispatch.Dispatcher, rec *funding.Recorder, store *db.DB) *WalletHandler {
	return &WalletHandler{registry: reg, dispatch: disp, funding: rec, store: store}
}

// RegisterRoutes registers wallet orchestration routes.
func (h *WalletHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/users", h.CreateUser)
	app.Post("/users/:userId/transfers", h.InitiateTransfer)
	app.Get("/users/:userId/transactions", h.ListTransactions)
	app.Post("/users/:userId/xrp-wallet/regenerate", h.RegenerateXrpWallet)
	app.Post("/users/:userId/fund-test-tokens", h.FundTestTokens)
}

type createUserRequest struct {
	Username string `json:"username"`
}

type userResponse struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	EVMAddress      string `json:"evmAddress,omitempty"`
	XRPAddress      string `json:"xrpAddress,omitempty"`
	SolanaPublicKey string `json:"solanaPublicKey,omitempty"`
}

func toUserResponse(u *db.User) userResponse {
	resp := userResponse{ID: u.ID, Username: u.Username}
	if u.EVMAddress != nil {
		resp.EVMAddress = *u.EVMAddress
	}
	if u.XRPAddress != nil {
		resp.XRPAddress = *u.XRPAddress
	}
	if u.SolanaPublicKey != nil {
		resp.SolanaPublicKey = *u.SolanaPublicKey
	}
	return resp
}

// CreateUser implements createUserWithWalletsAndFunding (§6.1).
func (h *WalletHandler) CreateUser(c fiber.Ctx) error {
	var req createUserRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username is required")
	}

	user, err := h.registry.CreateUserWithWalletsAndFunding(c.Context(), username)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create user")
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

type initiateTransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
}

type ledgerEntryResponse struct {
	ID        int64  `json:"id"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
	Network   string `json:"network"`
	TxHash    string `json:"txHash,omitempty"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func toLedgerEntryResponse(e *db.LedgerEntry) ledgerEntryResponse {
	resp := ledgerEntryResponse{
		ID:        e.ID,
		Recipient: e.Recipient,
		Amount:    e.Amount.String(),
		Token:     e.Token,
		Network:   string(e.Network),
		Status:    string(e.Status),
		Type:      string(e.Type),
		Timestamp: e.Timestamp.Unix(),
	}
	if e.TxHash != nil {
		resp.TxHash = *e.TxHash
	}
	return resp
}

// InitiateTransfer implements initiateTransfer(userId, recipient, amount, token) (§6.1).
func (h *WalletHandler) InitiateTransfer(c fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var req initiateTransferRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid amount")
	}

	user, err := h.store.GetUserByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
	}

	entry, err := h.dispatch.Dispatch(c.Context(), user, req.Recipient, amount, req.Token)
	if err != nil {
		return transferErrorResponse(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(toLedgerEntryResponse(entry))
}

func transferErrorResponse(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validate.ErrInvalidAmount),
		errors.Is(err, validate.ErrMissingRecipient),
		errors.Is(err, validate.ErrUnsupportedToken),
		errors.Is(err, validate.ErrInvalidEvmAddress):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, chain.ErrInsufficientBalance):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "insufficient balance")
	case errors.Is(err, chain.ErrPermanent):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "transfer rejected")
	case errors.Is(err, chain.ErrTransient):
		return fiber.NewError(fiber.StatusBadGateway, "chain temporarily unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "transfer failed")
	}
}

type transactionsResponse struct {
	Sent     []ledgerEntryResponse `json:"sent"`
	Received []ledgerEntryResponse `json:"received"`
	All      []ledgerEntryResponse `json:"all"`
	Funding  []ledgerEntryResponse `json:"funding"`
}

// ListTransactions implements listTransactions(userId) (§6.1, §8 I5): all is
// the timestamp-descending union of sent and received.
func (h *WalletHandler) ListTransactions(c fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.store.GetUserByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
	}

	sent, err := h.store.BySender(c.Context(), user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load sent transfers")
	}

	received, err := h.store.ByRecipient(c.Context(), userAddresses(user))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load received transfers")
	}

	fundingEntries, err := h.store.ByUserIDAndTypeIn(c.Context(), user.ID, []db.LedgerType{
		db.LedgerTypeFunding, db.LedgerTypeMinting, db.LedgerTypeFaucetFunding, db.LedgerTypeExternalFunding,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load funding history")
	}

	all := append(append([]*db.LedgerEntry{}, sent...), received...)
	sortByTimestampDesc(all)

	return c.JSON(transactionsResponse{
		Sent:     toLedgerEntryResponses(sent),
		Received: toLedgerEntryResponses(received),
		All:      toLedgerEntryResponses(all),
		Funding:  toLedgerEntryResponses(fundingEntries),
	})
}

func userAddresses(u *db.User) []string {
	var addrs []string
	if u.EVMAddress != nil {
		addrs = append(addrs, *u.EVMAddress)
	}
	if u.XRPAddress != nil {
		addrs = append(addrs, *u.XRPAddress)
	}
	if u.SolanaPublicKey != nil {
		addrs = append(addrs, *u.SolanaPublicKey)
	}
	return addrs
}

func sortByTimestampDesc(entries []*db.LedgerEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Timestamp.After(entries[j-1].Timestamp); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

func toLedgerEntryResponses(entries []*db.LedgerEntry) []ledgerEntryResponse {
	out := make([]ledgerEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toLedgerEntryResponse(e)
	}
	return out
}

// RegenerateXrpWallet implements regenerateXrpWallet(userId) (§6.1).
func (h *WalletHandler) RegenerateXrpWallet(c fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.registry.RegenerateXrpWallet(c.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to regenerate xrp wallet")
	}
	return c.JSON(toUserResponse(user))
}

type fundTestTokensResponse struct {
	USDC string `json:"usdc"`
	EURC string `json:"eurc"`
}

// FundTestTokens implements fundTestTokens(userId) (§6.1).
func (h *WalletHandler) FundTestTokens(c fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.store.GetUserByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
	}

	result, err := h.funding.FundTestTokens(c.Context(), user)
	if err != nil {
		if errors.Is(err, funding.ErrConfigurationMissing) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "test token minting is not configured")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fund test tokens")
	}
	return c.JSON(fundTestTokensResponse{USDC: result.USDCTxHash, EURC: result.EURCTxHash})
}
