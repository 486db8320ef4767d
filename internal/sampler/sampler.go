// Package sampler records periodic reserve snapshots: pool sizes and LP share
// prices per reserve token. Series reads serve the charting endpoints and can
// append a live reading when the requested range is open-ended.
package sampler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lotteryScope/internal/model"
	"lotteryScope/internal/token"
)

// Reserve reads live pool state from the chain.
type Reserve interface {
	PoolSize(ctx context.Context, t token.Token) (float64, error)
	LpPrice(ctx context.Context, t token.Token) (float64, error)
}

// Store persists and serves samples.
type Store interface {
	InsertPoolSizeSamples(ctx context.Context, samples []model.PoolSizeSample) error
	InsertPriceSamples(ctx context.Context, samples []model.PriceSample) error
	PoolSizeRange(ctx context.Context, tokenAddress string, from, to time.Time) ([]model.PoolSizeSample, error)
	PriceRange(ctx context.Context, tokenAddress, lpAddress string, from, to time.Time) ([]model.PriceSample, error)
}

// Sampler takes reserve snapshots for every registered reserve token.
type Sampler struct {
	reserve  Reserve
	store    Store
	registry *token.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func New(reserve Reserve, store Store, registry *token.Registry, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		reserve:  reserve,
		store:    store,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce samples every reserve token at a single shared timestamp and
// persists the readings. Tokens are read in parallel; one failing token fails
// the whole run so a tick never records a partial snapshot.
func (s *Sampler) RunOnce(ctx context.Context) error {
	tokens := s.registry.Reserve()
	if len(tokens) == 0 {
		return nil
	}
	sampledAt := s.now().UTC()

	var (
		mu     sync.Mutex
		sizes  []model.PoolSizeSample
		prices []model.PriceSample
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tokens {
		t := t
		g.Go(func() error {
			size, price, err := s.sampleToken(gctx, t)
			if err != nil {
				return err
			}
			mu.Lock()
			sizes = append(sizes, model.PoolSizeSample{
				TokenAddress: lowerHex(t.Address.Hex()),
				PoolSize:     size,
				Time:         sampledAt,
			})
			prices = append(prices, model.PriceSample{
				TokenAddress: lowerHex(t.Address.Hex()),
				LpAddress:    lowerHex(t.LpAddress.Hex()),
				Price:        price,
				Time:         sampledAt,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.store.InsertPoolSizeSamples(ctx, sizes); err != nil {
		return fmt.Errorf("insert pool size samples: %w", err)
	}
	if err := s.store.InsertPriceSamples(ctx, prices); err != nil {
		return fmt.Errorf("insert price samples: %w", err)
	}

	s.logger.Info("reserve snapshot recorded",
		zap.Int("tokens", len(tokens)),
		zap.Time("sampled_at", sampledAt),
	)
	return nil
}

func (s *Sampler) sampleToken(ctx context.Context, t token.Token) (size, price float64, err error) {
	size, err = s.reserve.PoolSize(ctx, t)
	if err != nil {
		return 0, 0, err
	}
	price, err = s.reserve.LpPrice(ctx, t)
	if err != nil {
		return 0, 0, err
	}
	return size, price, nil
}

// PoolSizeSeries returns stored samples in [from, to). A zero end bound means
// "up to now": the stored samples get one live reading appended so the series
// always reaches the present.
func (s *Sampler) PoolSizeSeries(ctx context.Context, tokenAddress string, from, to time.Time) ([]model.PoolSizeSample, error) {
	t, ok := s.registry.ByAddress(tokenAddress)
	if !ok || !t.HasLp() {
		return nil, fmt.Errorf("unknown reserve token %s", tokenAddress)
	}
	address := lowerHex(t.Address.Hex())

	live := to.IsZero()
	if live {
		to = s.now().UTC()
	}
	out, err := s.store.PoolSizeRange(ctx, address, from, to)
	if err != nil {
		return nil, err
	}
	if live {
		size, err := s.reserve.PoolSize(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("live pool size: %w", err)
		}
		out = append(out, model.PoolSizeSample{TokenAddress: address, PoolSize: size, Time: to})
	}
	return out, nil
}

// PriceSeries returns stored LP price samples in [from, to), with the same
// live-append behavior as PoolSizeSeries.
func (s *Sampler) PriceSeries(ctx context.Context, tokenAddress string, from, to time.Time) ([]model.PriceSample, error) {
	t, ok := s.registry.ByAddress(tokenAddress)
	if !ok || !t.HasLp() {
		return nil, fmt.Errorf("unknown reserve token %s", tokenAddress)
	}
	address := lowerHex(t.Address.Hex())
	lpAddress := lowerHex(t.LpAddress.Hex())

	live := to.IsZero()
	if live {
		to = s.now().UTC()
	}
	out, err := s.store.PriceRange(ctx, address, lpAddress, from, to)
	if err != nil {
		return nil, err
	}
	if live {
		price, err := s.reserve.LpPrice(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("live lp price: %w", err)
		}
		out = append(out, model.PriceSample{TokenAddress: address, LpAddress: lpAddress, Price: price, Time: to})
	}
	return out, nil
}

func lowerHex(hex string) string {
	return strings.ToLower(hex)
}
