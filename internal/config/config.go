package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lotteryScope/internal/token"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL     string
	PotAddress string
	PgDSN      string

	Tokens []TokenConfig

	ChunkSize        uint64
	MaxBacklogBlocks uint64
	MaxRetries       int
	RetryBackoff     time.Duration

	IngestInterval time.Duration
	SampleInterval time.Duration
	PriceInterval  time.Duration

	NotifyMinROI  float64
	TelegramToken string
	TelegramChat  string
	PriceAPIURL   string

	ListenAddr string
	LogLevel   string
}

// TokenConfig describes one registry token in the config file.
type TokenConfig struct {
	Address     string  `mapstructure:"address"`
	Symbol      string  `mapstructure:"symbol"`
	Decimals    uint8   `mapstructure:"decimals"`
	LpAddress   string  `mapstructure:"lp-address"`
	LpDecimals  uint8   `mapstructure:"lp-decimals"`
	PriceSymbol string  `mapstructure:"price-symbol"`
	SeedPrice   float64 `mapstructure:"seed-price"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LOTTERYSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chunk-size", uint64(9999))
	v.SetDefault("max-backlog-blocks", uint64(216000))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("ingest-interval", 5*time.Minute)
	v.SetDefault("sample-interval", time.Hour)
	v.SetDefault("price-interval", 5*time.Minute)
	v.SetDefault("notify-min-roi", 5.0)
	v.SetDefault("listen-addr", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:           v.GetString("rpc"),
		PotAddress:       v.GetString("pot-address"),
		PgDSN:            v.GetString("pg-dsn"),
		ChunkSize:        v.GetUint64("chunk-size"),
		MaxBacklogBlocks: v.GetUint64("max-backlog-blocks"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		IngestInterval:   v.GetDuration("ingest-interval"),
		SampleInterval:   v.GetDuration("sample-interval"),
		PriceInterval:    v.GetDuration("price-interval"),
		NotifyMinROI:     v.GetFloat64("notify-min-roi"),
		TelegramToken:    v.GetString("telegram-token"),
		TelegramChat:     v.GetString("telegram-chat"),
		PriceAPIURL:      v.GetString("price-api-url"),
		ListenAddr:       v.GetString("listen-addr"),
		LogLevel:         v.GetString("log-level"),
	}

	if v.IsSet("tokens") {
		if err := v.UnmarshalKey("tokens", &cfg.Tokens); err != nil {
			return Config{}, fmt.Errorf("parse tokens: %w", err)
		}
	}

	return cfg, nil
}

// TokenSet converts the configured tokens into registry entries.
func (c Config) TokenSet() ([]token.Token, error) {
	out := make([]token.Token, 0, len(c.Tokens))
	for _, tc := range c.Tokens {
		if !common.IsHexAddress(tc.Address) {
			return nil, fmt.Errorf("token %q: invalid address %q", tc.Symbol, tc.Address)
		}
		t := token.Token{
			Address:     common.HexToAddress(tc.Address),
			Symbol:      tc.Symbol,
			Decimals:    tc.Decimals,
			PriceSymbol: tc.PriceSymbol,
			SeedPrice:   tc.SeedPrice,
		}
		if tc.LpAddress != "" {
			if !common.IsHexAddress(tc.LpAddress) {
				return nil, fmt.Errorf("token %q: invalid lp address %q", tc.Symbol, tc.LpAddress)
			}
			t.LpAddress = common.HexToAddress(tc.LpAddress)
			t.LpDecimals = tc.LpDecimals
		}
		out = append(out, t)
	}
	return out, nil
}
