package main

import (
	"fmt"
	"os"
	"strconv"

	"chainvault/internal/cli"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var apiURL string

	rootCmd := &cobra.Command{
		Use:   "chainvaultctl",
		Short: "Operator CLI for the Chainvault multi-chain wallet API",
		Long: `chainvaultctl drives the Chainvault HTTP API: create users, submit
transfers, inspect transaction history, regenerate XRP wallets, and mint
test tokens.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Chainvault API base URL")

	createUserCmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user and generate EVM/XRP/Solana wallets (or return the existing one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := cli.NewAPIClient(apiURL).CreateUser(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("id:      %d\n", user.ID)
			fmt.Printf("username: %s\n", user.Username)
			fmt.Printf("evm:     %s\n", user.EVMAddress)
			fmt.Printf("xrp:     %s\n", user.XRPAddress)
			fmt.Printf("solana:  %s\n", user.SolanaPublicKey)
			return nil
		},
	}

	var recipient, amount, token string
	transferCmd := &cobra.Command{
		Use:   "transfer <userId>",
		Short: "Initiate a transfer from a user's wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			entry, err := cli.NewAPIClient(apiURL).InitiateTransfer(userID, recipient, amount, token)
			if err != nil {
				return err
			}
			fmt.Printf("ledger id: %d\n", entry.ID)
			fmt.Printf("status:    %s\n", entry.Status)
			fmt.Printf("network:   %s\n", entry.Network)
			if entry.TxHash != "" {
				fmt.Printf("tx hash:   %s\n", entry.TxHash)
			}
			return nil
		},
	}
	transferCmd.Flags().StringVar(&recipient, "to", "", "recipient address (required)")
	transferCmd.Flags().StringVar(&amount, "amount", "", "transfer amount (required)")
	transferCmd.Flags().StringVar(&token, "token", "", "token symbol, e.g. ETH, XRP, SOL (required)")
	transferCmd.MarkFlagRequired("to")
	transferCmd.MarkFlagRequired("amount")
	transferCmd.MarkFlagRequired("token")

	transactionsCmd := &cobra.Command{
		Use:   "transactions <userId>",
		Short: "List a user's sent, received, and funding transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			txs, err := cli.NewAPIClient(apiURL).ListTransactions(userID)
			if err != nil {
				return err
			}
			printEntries("sent", txs.Sent)
			printEntries("received", txs.Received)
			printEntries("funding", txs.Funding)
			return nil
		},
	}

	regenXrpCmd := &cobra.Command{
		Use:   "regenerate-xrp-wallet <userId>",
		Short: "Replace a user's XRP wallet with a freshly generated one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			user, err := cli.NewAPIClient(apiURL).RegenerateXrpWallet(userID)
			if err != nil {
				return err
			}
			fmt.Printf("new xrp address: %s\n", user.XRPAddress)
			return nil
		},
	}

	fundTestTokensCmd := &cobra.Command{
		Use:   "fund-test-tokens <userId>",
		Short: "Mint TEST-USDC and TEST-EURC to a user's EVM address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			result, err := cli.NewAPIClient(apiURL).FundTestTokens(userID)
			if err != nil {
				return err
			}
			fmt.Printf("usdc tx: %s\n", result.USDC)
			fmt.Printf("eurc tx: %s\n", result.EURC)
			return nil
		},
	}

	rootCmd.AddCommand(createUserCmd, transferCmd, transactionsCmd, regenXrpCmd, fundTestTokensCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printEntries(label string, entries []cli.LedgerEntryResponse) {
	fmt.Printf("%s:\n", label)
	if len(entries) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, e := range entries {
		fmt.Printf("  [%d] %s %s %s -> %s (%s/%s)\n", e.ID, e.Amount, e.Token, e.Network, e.Recipient, e.Status, e.Type)
	}
}
