// Package cli provides the HTTP client and command wiring for the
// chainvault operator CLI.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles communication with the Chainvault API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateUserRequest requests a new user, or returns an existing one.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// UserResponse mirrors the API's per-user wallet summary.
type UserResponse struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	EVMAddress      string `json:"evmAddress,omitempty"`
	XRPAddress      string `json:"xrpAddress,omitempty"`
	SolanaPublicKey string `json:"solanaPublicKey,omitempty"`
}

// InitiateTransferRequest requests a transfer from a user's wallets.
type InitiateTransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
}

// LedgerEntryResponse mirrors a single transfer/funding record.
type LedgerEntryResponse struct {
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

// TransactionsResponse mirrors listTransactions's sent/received/all/funding split.
type TransactionsResponse struct {
	Sent     []LedgerEntryResponse `json:"sent"`
	Received []LedgerEntryResponse `json:"received"`
	All      []LedgerEntryResponse `json:"all"`
	Funding  []LedgerEntryResponse `json:"funding"`
}

// FundTestTokensResponse mirrors fundTestTokens's minted tx hashes.
type FundTestTokensResponse struct {
	USDC string `json:"usdc"`
	EURC string `json:"eurc"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// doRequest performs an HTTP request with JSON marshaling/unmarshaling.
func (c *APIClient) doRequest(method, endpoint string, expectedStatus int, reqBody interface{}, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		var errResp ErrorResponse
		if json.Unmarshal(respData, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("API error (%d %s %s): %s",
				resp.StatusCode, method, endpoint, errResp.Error)
		}
		bodyPreview := string(respData)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return fmt.Errorf("unexpected status %d from %s %s: %s",
			resp.StatusCode, method, endpoint, bodyPreview)
	}

	if respBody != nil {
		if err := json.Unmarshal(respData, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// CreateUser creates a new user (or returns the existing one for that
// username) via POST /users.
func (c *APIClient) CreateUser(username string) (*UserResponse, error) {
	req := CreateUserRequest{Username: username}
	var result UserResponse
	if err := c.doRequest(http.MethodPost, "/users", http.StatusCreated, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InitiateTransfer submits a transfer via POST /users/:userId/transfers.
func (c *APIClient) InitiateTransfer(userID int64, recipient, amount, token string) (*LedgerEntryResponse, error) {
	req := InitiateTransferRequest{Recipient: recipient, Amount: amount, Token: token}
	var result LedgerEntryResponse
	endpoint := fmt.Sprintf("/users/%d/transfers", userID)
	if err := c.doRequest(http.MethodPost, endpoint, http.StatusAccepted, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTransactions fetches a user's transaction history via
// GET /users/:userId/transactions.
func (c *APIClient) ListTransactions(userID int64) (*TransactionsResponse, error) {
	var result TransactionsResponse
	endpoint := fmt.Sprintf("/users/%d/transactions", userID)
	if err := c.doRequest(http.MethodGet, endpoint, http.StatusOK, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegenerateXrpWallet replaces a user's XRP wallet via
// POST /users/:userId/xrp-wallet/regenerate.
func (c *APIClient) RegenerateXrpWallet(userID int64) (*UserResponse, error) {
	var result UserResponse
	endpoint := fmt.Sprintf("/users/%d/xrp-wallet/regenerate", userID)
	if err := c.doRequest(http.MethodPost, endpoint, http.StatusOK, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FundTestTokens mints TEST-USDC/TEST-EURC to a user via
// POST /users/:userId/fund-test-tokens.
func (c *APIClient) FundTestTokens(userID int64) (*FundTestTokensResponse, error) {
	var result FundTestTokensResponse
	endpoint := fmt.Sprintf("/users/%d/fund-test-tokens", userID)
	if err := c.doRequest(http.MethodPost, endpoint, http.StatusOK, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
