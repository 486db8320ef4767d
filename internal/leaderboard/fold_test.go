package leaderboard

import (
	"math"
	"strings"
	"testing"

	"lotteryScope/internal/model"
)

const (
	inputToken  = "0x1111111111111111111111111111111111111111"
	outputToken = "0x2222222222222222222222222222222222222222"
)

type staticPrices map[string]float64

func (p staticPrices) Price(address string) (float64, bool) {
	v, ok := p[address]
	return v, ok
}

func play(tx string, input float64, repeats uint64, output, exp float64, block uint64) model.PlayEvent {
	return model.PlayEvent{
		EventBase: model.EventBase{
			BlockNumber:    block,
			BlockTimestamp: 1700000000 + block,
			TxHash:         tx,
			LogIndex:       0,
		},
		Player:            "0xplayer",
		InputToken:        inputToken,
		InputAmount:       input,
		Repeats:           repeats,
		OutputToken:       outputToken,
		OutputTotalAmount: output,
		OutputExpAmount:   exp,
	}
}

func TestDeltaFor(t *testing.T) {
	agg := NewAggregator(staticPrices{inputToken: 2, outputToken: 0.5})

	delta, err := agg.DeltaFor(play("0xa", 10, 3, 40, 100, 7))
	if err != nil {
		t.Fatalf("delta: %v", err)
	}

	if delta.InputUSD != 60 { // 10 units * $2 * 3 repeats
		t.Fatalf("input usd mismatch: %f", delta.InputUSD)
	}
	if delta.OutputUSD != 20 { // 40 units * $0.5
		t.Fatalf("output usd mismatch: %f", delta.OutputUSD)
	}
	if delta.ExpAmount != 100 || delta.BlockNumber != 7 {
		t.Fatalf("delta mismatch: %+v", delta)
	}
}

func TestDeltaForUnpricedToken(t *testing.T) {
	agg := NewAggregator(staticPrices{inputToken: 1})

	_, err := agg.DeltaFor(play("0xa", 10, 1, 5, 0, 1))
	if err == nil || !strings.Contains(err.Error(), outputToken) {
		t.Fatalf("expected unpriced output error, got %v", err)
	}
}

func TestFoldKeysByEvent(t *testing.T) {
	agg := NewAggregator(staticPrices{inputToken: 1, outputToken: 1})

	deltas, err := agg.Fold([]model.PlayEvent{
		play("0xa", 10, 1, 5, 100, 1),
		play("0xb", 20, 1, 60, 200, 2),
	})
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}

	merged := deltas[model.EventKey{TxHash: "0xa", LogIndex: 0}]
	merged.Merge(deltas[model.EventKey{TxHash: "0xb", LogIndex: 0}])

	if merged.InputUSD != 30 || merged.OutputUSD != 65 || merged.ExpAmount != 300 {
		t.Fatalf("merged totals mismatch: %+v", merged)
	}
	if merged.BlockNumber != 2 {
		t.Fatalf("merged block mismatch: %d", merged.BlockNumber)
	}
	if ratio := merged.OutputUSD / merged.InputUSD; math.Abs(ratio-65.0/30.0) > 1e-9 {
		t.Fatalf("ratio mismatch: %f", ratio)
	}
}
