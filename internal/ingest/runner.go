// Package ingest drives the synchronization passes that keep the local store
// caught up with the on-chain event log.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lotteryScope/internal/leaderboard"
	"lotteryScope/internal/model"
)

// Source is the chain boundary: a numbered, append-only event log per stream
// plus the current tip.
type Source interface {
	Tip(ctx context.Context) (uint64, error)
	Deposits(ctx context.Context, from, to uint64) ([]model.DepositEvent, error)
	Withdrawals(ctx context.Context, from, to uint64) ([]model.WithdrawEvent, error)
	Plays(ctx context.Context, from, to uint64) ([]model.PlayEvent, error)
}

// Store is the persistence boundary for a pass.
type Store interface {
	Cursor(ctx context.Context, stream model.Stream) (uint64, bool, error)
	ApplyBatch(ctx context.Context, batch model.IngestBatch) (model.IngestResult, error)
}

// Notifier receives best-effort pushes for notable outcomes.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Config holds runtime settings for the runner.
type Config struct {
	ChunkSize        uint64 // max blocks per log query
	MaxBacklogBlocks uint64 // cold-start scan bound below the tip
	MaxRetries       int
	RetryBackoff     time.Duration
	NotifyMinROI     float64 // percent; payouts at or above it get pushed
}

// Runner executes complete, self-contained synchronization passes.
type Runner struct {
	cfg        Config
	source     Source
	store      Store
	aggregator *leaderboard.Aggregator
	cache      *leaderboard.Cache
	notifier   Notifier
	logger     *zap.Logger
	guard      runGuard
}

// NewRunner builds a Runner with its dependencies. A nil notifier disables
// pushes without affecting ingestion.
func NewRunner(cfg Config, source Source, store Store, aggregator *leaderboard.Aggregator, cache *leaderboard.Cache, notifier Notifier, logger *zap.Logger) *Runner {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 9999
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.NotifyMinROI == 0 {
		cfg.NotifyMinROI = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		store:      store,
		aggregator: aggregator,
		cache:      cache,
		notifier:   notifier,
		logger:     logger,
	}
}

// Running reports whether a pass is active.
func (r *Runner) Running() bool {
	return r.guard.active()
}

// Run executes one synchronization pass. It returns ErrAlreadyRunning when a
// pass is in flight; any other error means the pass aborted and the next tick
// resumes from the last committed cursors.
func (r *Runner) Run(ctx context.Context) error {
	if !r.guard.tryAcquire() {
		return ErrAlreadyRunning
	}
	defer r.guard.release()
	return r.pass(ctx)
}

func (r *Runner) pass(ctx context.Context) error {
	started := time.Now()

	var tip uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		tip, err = r.source.Tip(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("get tip: %w", err)
	}

	starts := make(map[model.Stream]uint64, 3)
	for _, stream := range model.Streams() {
		from, err := r.resumePoint(ctx, stream, tip)
		if err != nil {
			return err
		}
		starts[stream] = from
	}

	var (
		deposits    []model.DepositEvent
		withdrawals []model.WithdrawEvent
		plays       []model.PlayEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deposits, err = fetchChunked(gctx, r.cfg, starts[model.StreamDeposit], tip, r.source.Deposits)
		if err != nil {
			return fmt.Errorf("fetch deposits: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		withdrawals, err = fetchChunked(gctx, r.cfg, starts[model.StreamWithdraw], tip, r.source.Withdrawals)
		if err != nil {
			return fmt.Errorf("fetch withdrawals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		plays, err = fetchChunked(gctx, r.cfg, starts[model.StreamPlay], tip, r.source.Plays)
		if err != nil {
			return fmt.Errorf("fetch plays: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	deltas, err := r.aggregator.Fold(plays)
	if err != nil {
		return fmt.Errorf("fold plays: %w", err)
	}

	r.notifyOutliers(ctx, plays, deltas)

	batch := model.IngestBatch{
		Deposits:    deposits,
		Withdrawals: withdrawals,
		Plays:       plays,
		Deltas:      deltas,
		Cursors: map[model.Stream]uint64{
			model.StreamDeposit:  tip,
			model.StreamWithdraw: tip,
			model.StreamPlay:     tip,
		},
	}
	result, err := r.store.ApplyBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh caches: %w", err)
		}
	}

	r.logger.Info("ingestion pass complete",
		zap.Uint64("tip", tip),
		zap.Int("deposits", result.Deposits),
		zap.Int("withdrawals", result.Withdrawals),
		zap.Int("plays", result.Plays),
		zap.Int("fetched", len(deposits)+len(withdrawals)+len(plays)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// resumePoint computes the first block to scan for a stream: one past the
// cursor, but never further back than the backlog bound below the tip.
func (r *Runner) resumePoint(ctx context.Context, stream model.Stream, tip uint64) (uint64, error) {
	cursor, ok, err := r.store.Cursor(ctx, stream)
	if err != nil {
		return 0, fmt.Errorf("load cursor %s: %w", stream, err)
	}

	var floor uint64
	if tip > r.cfg.MaxBacklogBlocks {
		floor = tip - r.cfg.MaxBacklogBlocks
	}

	if !ok || cursor < floor {
		return floor, nil
	}
	return cursor + 1, nil
}

func fetchChunked[T any](ctx context.Context, cfg Config, from, to uint64, fetch func(context.Context, uint64, uint64) ([]T, error)) ([]T, error) {
	var out []T
	for _, window := range windows(from, to, cfg.ChunkSize) {
		var chunk []T
		err := withRetry(ctx, cfg.MaxRetries, cfg.RetryBackoff, func(ctx context.Context) error {
			var err error
			chunk, err = fetch(ctx, window.From, window.To)
			return err
		})
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// notifyOutliers pushes plays whose payout beats the ROI threshold. Delivery
// is best-effort: failures are logged and never abort the pass.
func (r *Runner) notifyOutliers(ctx context.Context, plays []model.PlayEvent, deltas map[model.EventKey]model.LeaderboardDelta) {
	if r.notifier == nil {
		return
	}
	for _, evt := range plays {
		delta, ok := deltas[evt.Key()]
		if !ok || delta.InputUSD <= 0 || delta.OutputUSD <= 0 {
			continue
		}
		roi := (delta.OutputUSD - delta.InputUSD) / delta.InputUSD * 100
		if roi < r.cfg.NotifyMinROI {
			continue
		}
		msg := fmt.Sprintf(
			"🎉 A lucky winner turned $%.0f into $%.2f with an ROI of %.2f%%!\n🚀 Even $1 can pave your way to the jackpot.",
			delta.InputUSD, delta.OutputUSD, roi,
		)
		if err := r.notifier.Notify(ctx, msg); err != nil {
			r.logger.Warn("notify winner failed", zap.Error(err), zap.String("player", evt.Player))
		}
	}
}
