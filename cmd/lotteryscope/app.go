package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lotteryScope/internal/chain"
	"lotteryScope/internal/config"
	"lotteryScope/internal/ingest"
	"lotteryScope/internal/leaderboard"
	"lotteryScope/internal/lottery"
	"lotteryScope/internal/notify"
	"lotteryScope/internal/prices"
	"lotteryScope/internal/sampler"
	"lotteryScope/internal/storage/postgres"
	"lotteryScope/internal/token"
)

// app bundles the wired pipeline components behind one constructor so the
// subcommands share identical setup.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *chain.Client
	registry *token.Registry
	contract *lottery.Contract
	store    *postgres.Store
	cache    *leaderboard.Cache
	runner   *ingest.Runner
	sampler  *sampler.Sampler
	updater  *prices.Updater
}

func buildApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.PotAddress) {
		return nil, fmt.Errorf("pot contract address is required")
	}
	if cfg.PgDSN == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}

	tokens, err := cfg.TokenSet()
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("token list is required")
	}
	registry, err := token.NewRegistry(tokens)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	decoder, err := lottery.NewDecoder(registry, 0)
	if err != nil {
		client.Close()
		return nil, err
	}
	contract, err := lottery.NewContract(client, common.HexToAddress(cfg.PotAddress), decoder)
	if err != nil {
		client.Close()
		return nil, err
	}

	store, err := postgres.NewStore(ctx, cfg.PgDSN)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		client.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	var notifier ingest.Notifier
	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegram("", cfg.TelegramToken, cfg.TelegramChat)
		if err != nil {
			store.Close()
			client.Close()
			return nil, err
		}
		notifier = telegram
	}

	cache := leaderboard.NewCache(store, logger)
	runner := ingest.NewRunner(ingest.Config{
		ChunkSize:        cfg.ChunkSize,
		MaxBacklogBlocks: cfg.MaxBacklogBlocks,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoff:     cfg.RetryBackoff,
		NotifyMinROI:     cfg.NotifyMinROI,
	}, contract, store, leaderboard.NewAggregator(registry), cache, notifier, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: registry,
		contract: contract,
		store:    store,
		cache:    cache,
		runner:   runner,
		sampler:  sampler.New(contract, store, registry, logger),
		updater:  prices.NewUpdater(cfg.PriceAPIURL, nil, registry, logger),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.client.Close()
	a.logger.Sync()
}
