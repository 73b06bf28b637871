package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewired-gh/suimomentum/internal/aggregator"
	"github.com/rewired-gh/suimomentum/internal/config"
	"github.com/rewired-gh/suimomentum/internal/executor"
	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/metrics"
	"github.com/rewired-gh/suimomentum/internal/monitor"
	"github.com/rewired-gh/suimomentum/internal/scheduler"
	"github.com/rewired-gh/suimomentum/internal/server"
	"github.com/rewired-gh/suimomentum/internal/storage"
	"github.com/rewired-gh/suimomentum/internal/sui"
	"github.com/rewired-gh/suimomentum/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	key, err := sui.LoadKey(cfg.Wallet.PrivateKey)
	if err != nil {
		logger.Fatal("Invalid wallet key: %v", err)
	}
	logger.Info("Trading as %s (dry run: %t)", key.Address(), cfg.Trading.DryRun)

	store, err := storage.New(cfg.Storage.MaxRecords, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	aggClient := aggregator.NewClient(
		cfg.Aggregator.BaseURL,
		cfg.Aggregator.APIKey,
		cfg.Symbols(),
		cfg.Aggregator.Tokens,
		aggregator.ClientConfig{
			Timeout:        cfg.Aggregator.Timeout,
			MaxRetries:     cfg.Aggregator.MaxRetries,
			RetryDelayBase: cfg.Aggregator.RetryDelayBase,
		},
	)

	rpc := sui.NewRPCClient(cfg.Sui.RPCURL, cfg.Sui.Timeout)
	signer := sui.NewSigner(key, rpc, aggClient, cfg.Trading.MaxSlippage, cfg.Trading.DryRun)
	gate := executor.NewGate(signer)

	evaluator := monitor.New(
		monitor.NewPriceHistory(cfg.Trading.PriceWindow),
		aggClient,
		monitor.Config{
			Pairs:              cfg.Trading.Pairs,
			SwapAmount:         cfg.Trading.SwapAmount,
			MomentumThreshold:  cfg.Trading.MomentumThreshold,
			MinProfitThreshold: cfg.Trading.MinProfitThreshold,
			MaxSlippage:        cfg.Trading.MaxSlippage,
		},
	)

	recorder := metrics.New()

	opts := scheduler.Options{
		Interval: cfg.Trading.Interval,
		Journal:  store,
		Metrics:  recorder,
		AfterCycle: func() {
			if err := store.Rotate(); err != nil {
				logger.Warn("Failed to rotate journal: %v", err)
			}
		},
	}

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		opts.Notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	sched := scheduler.New(aggClient, evaluator, gate, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx, func() string {
			return sched.Status().String()
		})
	}

	var srv *server.Server
	if cfg.Metrics.Enabled {
		srv = server.New(cfg.Metrics.ListenAddr, sched, store, recorder.Registry())
		srv.Start()
	}

	logger.Info("Starting trading service (interval: %v, window: %v, momentum: %.4f, min profit: %.4f, pairs: %v)",
		cfg.Trading.Interval,
		cfg.Trading.PriceWindow,
		cfg.Trading.MomentumThreshold,
		cfg.Trading.MinProfitThreshold,
		cfg.Trading.Pairs,
	)

	sched.Run(ctx)

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("Failed to stop status server: %v", err)
		}
	}
	logger.Info("Service stopped")
}
