package lottery

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"lotteryScope/internal/chain"
	"lotteryScope/internal/model"
	"lotteryScope/internal/token"
)

// Contract is the chain-source boundary for one deployed pot contract. It
// exposes the three event streams as typed batches and the live reserve reads
// the sampler needs.
type Contract struct {
	client  *chain.Client
	address common.Address
	decoder *Decoder
}

// NewContract binds a chain client and decoder to a pot contract address.
func NewContract(client *chain.Client, address common.Address, decoder *Decoder) (*Contract, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if decoder == nil {
		return nil, fmt.Errorf("decoder is nil")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("contract address is required")
	}
	return &Contract{client: client, address: address, decoder: decoder}, nil
}

// Tip returns the current head block number.
func (c *Contract) Tip(ctx context.Context) (uint64, error) {
	return c.client.Tip(ctx)
}

// Deposits returns decoded deposit events in [from, to], ordered by block then
// log index.
func (c *Contract) Deposits(ctx context.Context, from, to uint64) ([]model.DepositEvent, error) {
	logs, err := c.streamLogs(ctx, model.StreamDeposit, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]model.DepositEvent, 0, len(logs))
	for _, log := range logs {
		ts, err := c.client.BlockTimestamp(ctx, log.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		evt, err := c.decoder.DecodeDeposit(log, ts)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, nil
}

// Withdrawals returns decoded withdrawal events in [from, to].
func (c *Contract) Withdrawals(ctx context.Context, from, to uint64) ([]model.WithdrawEvent, error) {
	logs, err := c.streamLogs(ctx, model.StreamWithdraw, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]model.WithdrawEvent, 0, len(logs))
	for _, log := range logs {
		ts, err := c.client.BlockTimestamp(ctx, log.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		evt, err := c.decoder.DecodeWithdraw(log, ts)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, nil
}

// Plays returns decoded play-outcome events in [from, to].
func (c *Contract) Plays(ctx context.Context, from, to uint64) ([]model.PlayEvent, error) {
	logs, err := c.streamLogs(ctx, model.StreamPlay, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]model.PlayEvent, 0, len(logs))
	for _, log := range logs {
		ts, err := c.client.BlockTimestamp(ctx, log.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		evt, err := c.decoder.DecodePlay(log, ts)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, nil
}

func (c *Contract) streamLogs(ctx context.Context, stream model.Stream, from, to uint64) ([]types.Log, error) {
	logs, err := c.client.FilterLogs(ctx, from, to,
		[]common.Address{c.address},
		[]common.Hash{c.decoder.Topic0(stream)},
	)
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", stream, err)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
	return logs, nil
}

// PoolSize reads the reserve balance of one token held by the pot contract.
func (c *Contract) PoolSize(ctx context.Context, t token.Token) (float64, error) {
	balance, err := c.client.BalanceOf(ctx, t.Address, c.address)
	if err != nil {
		return 0, fmt.Errorf("pool size of %s: %w", t.Symbol, err)
	}
	return formatUnits(balance, t.Decimals), nil
}

// LpPrice derives the LP share price as pool size over LP supply. An empty
// pool with no shares prices at 1.0 so the first deposit mints at par.
func (c *Contract) LpPrice(ctx context.Context, t token.Token) (float64, error) {
	if !t.HasLp() {
		return 0, fmt.Errorf("token %s has no lp pair", t.Symbol)
	}

	supplyRaw, err := c.client.TotalSupply(ctx, t.LpAddress)
	if err != nil {
		return 0, fmt.Errorf("lp supply of %s: %w", t.Symbol, err)
	}
	size, err := c.PoolSize(ctx, t)
	if err != nil {
		return 0, err
	}

	supply := formatUnits(supplyRaw, t.LpDecimals)
	if supply == 0 {
		if size == 0 {
			return 1, nil
		}
		return 0, fmt.Errorf("lp supply of %s is zero with non-empty pool", t.Symbol)
	}
	return size / supply, nil
}
