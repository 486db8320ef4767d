package leaderboard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"lotteryScope/internal/model"
)

// TopSize is the fixed length of every ranked view.
const TopSize = 10

// Reader supplies the persisted views behind the caches.
type Reader interface {
	TopByOutput(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	TopByRatio(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	TopByExp(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	RecentWinners(ctx context.Context, limit int) ([]model.PlayEvent, error)
}

// Cache holds the ranked views in memory. It is refreshed synchronously after
// every ingestion pass; a read before the first refresh triggers one lazily.
type Cache struct {
	reader Reader
	logger *zap.Logger

	mu      sync.RWMutex
	loaded  bool
	winners []model.LeaderboardEntry
	lucky   []model.LeaderboardEntry
	exp     []model.LeaderboardEntry
	recent  []model.PlayEvent
}

func NewCache(reader Reader, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{reader: reader, logger: logger}
}

// Refresh reloads every view from the store and swaps them in atomically.
func (c *Cache) Refresh(ctx context.Context) error {
	winners, err := c.reader.TopByOutput(ctx, TopSize)
	if err != nil {
		return err
	}
	lucky, err := c.reader.TopByRatio(ctx, TopSize)
	if err != nil {
		return err
	}
	exp, err := c.reader.TopByExp(ctx, TopSize)
	if err != nil {
		return err
	}
	recent, err := c.reader.RecentWinners(ctx, TopSize)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.winners = winners
	c.lucky = lucky
	c.exp = exp
	c.recent = recent
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debug("leaderboard caches refreshed",
		zap.Int("winners", len(winners)),
		zap.Int("lucky", len(lucky)),
		zap.Int("exp", len(exp)),
		zap.Int("recent", len(recent)),
	)
	return nil
}

// Winners returns the top entries by cumulative payout value.
func (c *Cache) Winners(ctx context.Context) ([]model.LeaderboardEntry, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.winners, nil
}

// Lucky returns the top entries by payout ratio.
func (c *Cache) Lucky(ctx context.Context) ([]model.LeaderboardEntry, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lucky, nil
}

// Exp returns the top entries by cumulative EXP.
func (c *Cache) Exp(ctx context.Context) ([]model.LeaderboardEntry, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exp, nil
}

// Recent returns the latest plays with a non-zero payout.
func (c *Cache) Recent(ctx context.Context) ([]model.PlayEvent, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recent, nil
}

func (c *Cache) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Refresh(ctx)
}
