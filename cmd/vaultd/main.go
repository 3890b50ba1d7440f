package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"synthvault/config"
	"synthvault/crypto"
	"synthvault/gateway"
	"synthvault/native/token"
	"synthvault/native/vault"
	"synthvault/observability/logging"
	"synthvault/state"
	"synthvault/storage"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "vaultd.toml", "path to vaultd configuration")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SYNTHVAULT_ENV"))
	logger := logging.Setup("vaultd", env)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open ledger database", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := state.NewStore(db)
	if err != nil {
		logger.Error("failed to construct ledger store", "error", err)
		os.Exit(1)
	}

	// The engine's account identity is derived from a persisted key so the
	// pooled collateral and mint authority survive restarts.
	engineKey, err := crypto.LoadOrCreateKey(cfg.KeyFile)
	if err != nil {
		logger.Error("failed to load engine key", "path", cfg.KeyFile, "error", err)
		os.Exit(1)
	}
	engineAddr := engineKey.PubKey().Address()
	debtToken := token.New("Synth USD", "SUSD", engineAddr)

	assets := make([]vault.AssetConfig, 0, len(cfg.Oracle.CollateralAssets))
	collateralTokens := make(map[string]*token.Token, len(cfg.Oracle.CollateralAssets))
	for i, symbol := range cfg.Oracle.CollateralAssets {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		feed := vault.NewHTTPFeed(nil, cfg.Oracle.PriceFeeds[i], cfg.Oracle.FeedDecimals)
		collateralToken := token.New(symbol+" Collateral", symbol, engineAddr)
		collateralTokens[symbol] = collateralToken
		assets = append(assets, vault.AssetConfig{
			Symbol: symbol,
			Feed:   vault.NewFeedAdapter(feed, cfg.Oracle.StaleTimeout()),
			Token:  collateralToken,
		})
	}

	ledger, err := vault.NewLedger(store, assets)
	if err != nil {
		logger.Error("failed to construct ledger", "error", err)
		os.Exit(1)
	}

	engine, err := vault.NewEngine(engineAddr, ledger, debtToken, vault.RiskParameters{
		LiquidationThresholdBps: cfg.Engine.LiquidationThresholdBps,
		LiquidationBonusBps:     cfg.Engine.LiquidationBonusBps,
	})
	if err != nil {
		logger.Error("failed to construct engine", "error", err)
		os.Exit(1)
	}

	server, err := gateway.NewServer(engine, logger)
	if err != nil {
		logger.Error("failed to construct gateway", "error", err)
		os.Exit(1)
	}
	engine.SetEmitter(server)
	server.SetTokens(collateralTokens, debtToken)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("vaultd listening", "address", cfg.ListenAddress, "assets", cfg.Oracle.CollateralAssets)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
