// Package leaderboard maintains cumulative per-player totals derived from play
// outcomes and serves the ranked views over them.
package leaderboard

import (
	"fmt"

	"lotteryScope/internal/model"
)

// Prices resolves the current USD price of a token address.
type Prices interface {
	Price(address string) (float64, bool)
}

// Aggregator computes leaderboard deltas from play outcomes. It is pure: the
// additive merge into persisted entries happens inside the store transaction.
type Aggregator struct {
	prices Prices
}

func NewAggregator(prices Prices) *Aggregator {
	return &Aggregator{prices: prices}
}

// DeltaFor computes the contribution of a single play outcome. An unpriced
// input or output token is a configuration mismatch, not a recoverable
// condition: the whole pass aborts rather than folding partial values.
func (a *Aggregator) DeltaFor(evt model.PlayEvent) (model.LeaderboardDelta, error) {
	inputPrice, ok := a.prices.Price(evt.InputToken)
	if !ok {
		return model.LeaderboardDelta{}, fmt.Errorf("no price for input token %s", evt.InputToken)
	}
	outputPrice, ok := a.prices.Price(evt.OutputToken)
	if !ok {
		return model.LeaderboardDelta{}, fmt.Errorf("no price for output token %s", evt.OutputToken)
	}

	return model.LeaderboardDelta{
		Player:         evt.Player,
		InputUSD:       evt.InputAmount * inputPrice * float64(evt.Repeats),
		OutputUSD:      evt.OutputTotalAmount * outputPrice,
		ExpAmount:      evt.OutputExpAmount,
		BlockNumber:    evt.BlockNumber,
		BlockTimestamp: evt.BlockTimestamp,
	}, nil
}

// Fold computes the per-event deltas for a batch of plays, keyed by event so
// the store can skip deltas of plays it already holds.
func (a *Aggregator) Fold(plays []model.PlayEvent) (map[model.EventKey]model.LeaderboardDelta, error) {
	deltas := make(map[model.EventKey]model.LeaderboardDelta, len(plays))
	for _, evt := range plays {
		delta, err := a.DeltaFor(evt)
		if err != nil {
			return nil, err
		}
		deltas[evt.Key()] = delta
	}
	return deltas, nil
}
