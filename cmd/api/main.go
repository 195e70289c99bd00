// Chainvault API wires together the chain adapters, persistence, and
// background monitor into an HTTP server, grounded on the teacher's own
// cmd/api/main.go shutdown-signal/graceful-shutdown shape.
package main

import (
	"context"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainvault/internal/chain/evm"
	"chainvault/internal/chain/solana"
	"chainvault/internal/chain/xrpl"
	"chainvault/internal/chainset"
	"chainvault/internal/config"
	"chainvault/internal/db"
	"chainvault/internal/dispatch"
	"chainvault/internal/funding"
	"chainvault/internal/monitor"
	"chainvault/internal/registry"
	"chainvault/internal/seedcache"
	"chainvault/internal/server"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.New(&db.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	tokens := evm.TokenAddresses{}
	if cfg.EVM.TestUSDCAddress != "" {
		tokens["TEST-USDC"] = common.HexToAddress(cfg.EVM.TestUSDCAddress)
	}
	if cfg.EVM.TestEURCAddress != "" {
		tokens["TEST-EURC"] = common.HexToAddress(cfg.EVM.TestEURCAddress)
	}

	evmAdapter, err := evm.New(ctx, evm.Config{
		RPCURL:    cfg.EVM.RPCURL,
		ChainID:   big.NewInt(cfg.EVM.ChainID),
		Tokens:    tokens,
		MinterKey: cfg.EVM.MinterPrivateKey,
	})
	if err != nil {
		slog.Error("failed to initialize evm adapter", "error", err)
		os.Exit(1)
	}

	xrplAdapter := xrpl.New(xrpl.Config{
		RPCURL:    cfg.XRP.RPCURL,
		FaucetURL: cfg.XRP.FaucetURL,
	})

	solanaAdapter := solana.New(solana.Config{RPCURL: cfg.Solana.RPCURL})

	chains := &chainset.Set{EVM: evmAdapter, XRP: xrplAdapter, Solana: solanaAdapter}
	seeds := seedcache.New()

	fundingRecorder := funding.New(store, evmAdapter, xrplAdapter, funding.Config{
		EVMFundingKeyHex: cfg.EVM.FundingPrivateKey,
		InitialEth:       decimal.NewFromFloat(cfg.EVM.InitialEth),
		InitialXrp:       decimal.NewFromFloat(cfg.XRP.InitialXrp),
		MinterKeyHex:     cfg.EVM.MinterPrivateKey,
	})

	reg := registry.New(store, evmAdapter, xrplAdapter, solanaAdapter, fundingRecorder, seeds)
	disp := dispatch.New(store, chains)

	monitorLoop := monitor.New(store, chains, monitor.Config{
		Period:           cfg.Monitor.Period,
		InitialDelay:     cfg.Monitor.InitialDelay,
		MaxAge:           time.Duration(cfg.Monitor.MaxAgeHours) * time.Hour,
		EVMConfirmations: cfg.Monitor.EVMConfirmations,
	}, slog.Default())
	monitorLoop.Start(ctx)

	srv := server.New(cfg, server.Dependencies{
		Store:    store,
		Registry: reg,
		Dispatch: disp,
		Funding:  fundingRecorder,
	}, slog.Default())

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	monitorLoop.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}

// setupLogging configures the global slog logger.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}
