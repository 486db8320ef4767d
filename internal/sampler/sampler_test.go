package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lotteryScope/internal/model"
	"lotteryScope/internal/token"
)

type fakeReserve struct {
	size  float64
	price float64
}

func (f *fakeReserve) PoolSize(context.Context, token.Token) (float64, error) { return f.size, nil }
func (f *fakeReserve) LpPrice(context.Context, token.Token) (float64, error)  { return f.price, nil }

type fakeSampleStore struct {
	sizes  []model.PoolSizeSample
	prices []model.PriceSample
}

func (f *fakeSampleStore) InsertPoolSizeSamples(_ context.Context, samples []model.PoolSizeSample) error {
	f.sizes = append(f.sizes, samples...)
	return nil
}

func (f *fakeSampleStore) InsertPriceSamples(_ context.Context, samples []model.PriceSample) error {
	f.prices = append(f.prices, samples...)
	return nil
}

func (f *fakeSampleStore) PoolSizeRange(_ context.Context, tokenAddress string, from, to time.Time) ([]model.PoolSizeSample, error) {
	var out []model.PoolSizeSample
	for _, s := range f.sizes {
		if s.TokenAddress == tokenAddress && !s.Time.Before(from) && s.Time.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSampleStore) PriceRange(_ context.Context, tokenAddress, lpAddress string, from, to time.Time) ([]model.PriceSample, error) {
	var out []model.PriceSample
	for _, s := range f.prices {
		if s.TokenAddress == tokenAddress && s.LpAddress == lpAddress && !s.Time.Before(from) && s.Time.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTestRegistry(t *testing.T) *token.Registry {
	t.Helper()
	registry, err := token.NewRegistry([]token.Token{
		{
			Address:    common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			Symbol:     "WBTC",
			Decimals:   8,
			LpAddress:  common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
			LpDecimals: 18,
		},
		{
			// No LP pair, so never sampled.
			Address:  common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"),
			Symbol:   "USDT",
			Decimals: 6,
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func TestRunOnceSamplesReserveTokens(t *testing.T) {
	store := &fakeSampleStore{}
	s := New(&fakeReserve{size: 12.5, price: 1.25}, store, newTestRegistry(t), nil)
	sampledAt := time.Unix(1700000000, 0).UTC()
	s.now = func() time.Time { return sampledAt }

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(store.sizes) != 1 || len(store.prices) != 1 {
		t.Fatalf("expected 1 sample per series, got %d/%d", len(store.sizes), len(store.prices))
	}
	if store.sizes[0].TokenAddress != "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Fatalf("token mismatch: %s", store.sizes[0].TokenAddress)
	}
	if !store.sizes[0].Time.Equal(sampledAt) || !store.prices[0].Time.Equal(sampledAt) {
		t.Fatalf("samples should share one timestamp: %+v %+v", store.sizes[0], store.prices[0])
	}
	if store.prices[0].Price != 1.25 {
		t.Fatalf("price mismatch: %f", store.prices[0].Price)
	}
}

func TestPoolSizeSeriesLiveAppend(t *testing.T) {
	store := &fakeSampleStore{}
	reserve := &fakeReserve{size: 10, price: 1}
	s := New(reserve, store, newTestRegistry(t), nil)

	base := time.Unix(1700000000, 0).UTC()
	s.now = func() time.Time { return base }
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	now := base.Add(time.Hour)
	s.now = func() time.Time { return now }
	reserve.size = 11

	// Open-ended query: stored samples plus exactly one live reading.
	got, err := s.PoolSizeSeries(context.Background(), "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", base, time.Time{})
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected stored + live sample, got %d", len(got))
	}
	if got[1].PoolSize != 11 || !got[1].Time.Equal(now) {
		t.Fatalf("live sample mismatch: %+v", got[1])
	}

	// Bounded query: stored samples only.
	got, err = s.PoolSizeSeries(context.Background(), "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", base, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected stored sample only, got %d", len(got))
	}
}

func TestPriceSeriesUnknownToken(t *testing.T) {
	s := New(&fakeReserve{}, &fakeSampleStore{}, newTestRegistry(t), nil)

	if _, err := s.PriceSeries(context.Background(), "0xdddddddddddddddddddddddddddddddddddddddd", time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected unknown token error")
	}
	// A registered token without an LP pair is not a reserve series either.
	if _, err := s.PriceSeries(context.Background(), "0xcccccccccccccccccccccccccccccccccccccccc", time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected non-reserve token error")
	}
}
