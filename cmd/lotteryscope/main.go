package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "lotteryscope",
		Short:        "Lottery event pipeline and leaderboard API",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: scheduled ingestion, sampling, and the HTTP API",
		RunE:  runDaemon,
	}
	addCommonFlags(runCmd)
	runCmd.Flags().Duration("ingest-interval", 5*time.Minute, "ingestion pass interval")
	runCmd.Flags().Duration("sample-interval", time.Hour, "reserve snapshot interval")
	runCmd.Flags().Duration("price-interval", 5*time.Minute, "USD price refresh interval")
	runCmd.Flags().String("listen-addr", ":8080", "HTTP API listen address")
	runCmd.Flags().String("telegram-token", "", "Telegram bot token (empty disables pushes)")
	runCmd.Flags().String("telegram-chat", "", "Telegram chat id")
	runCmd.Flags().Float64("notify-min-roi", 5, "minimum ROI percent for winner pushes")
	root.AddCommand(runCmd)

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass and exit",
		RunE:  runIngest,
	}
	addCommonFlags(ingestCmd)
	root.AddCommand(ingestCmd)

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Record one reserve snapshot and exit",
		RunE:  runSample,
	}
	addCommonFlags(sampleCmd)
	root.AddCommand(sampleCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("pot-address", "", "pot contract address")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Uint64("chunk-size", 9999, "blocks per log query")
	cmd.Flags().Uint64("max-backlog-blocks", 216000, "cold-start scan bound below the tip")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("price-api-url", "", "market data API base URL (empty uses the default)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
