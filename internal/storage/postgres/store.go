// Package postgres persists events, cursors, leaderboard totals, and
// time-series samples. All ingestion writes go through ApplyBatch, which runs
// in one transaction so a failed pass never leaves cursors ahead of the data.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lotteryScope/internal/model"
)

// Store provides Postgres persistence for the pipeline.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Cursor returns the last fully processed block for a stream.
func (s *Store) Cursor(ctx context.Context, stream model.Stream) (uint64, bool, error) {
	var last int64
	row := s.pool.QueryRow(ctx, `SELECT last_block FROM sync_cursors WHERE stream=$1`, string(stream))
	if err := row.Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(last), true, nil
}

const advanceCursorSQL = `
	INSERT INTO sync_cursors (stream, last_block, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (stream) DO UPDATE SET
		last_block = GREATEST(sync_cursors.last_block, EXCLUDED.last_block),
		updated_at = now()
`

// AdvanceCursor moves a stream cursor forward. Stale or repeated values are
// safe: the stored value only ever takes the max.
func (s *Store) AdvanceCursor(ctx context.Context, stream model.Stream, block uint64) error {
	_, err := s.pool.Exec(ctx, advanceCursorSQL, string(stream), int64(block))
	return err
}

const insertDepositSQL = `
	INSERT INTO deposit_events (
		block_number, block_timestamp, block_hash, tx_hash, tx_index, log_index,
		user_address, token_address, token_symbol,
		raw_token_amount, token_amount, raw_lp_amount, lp_amount
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	ON CONFLICT (tx_hash, log_index) DO NOTHING
`

const insertWithdrawSQL = `
	INSERT INTO withdraw_events (
		block_number, block_timestamp, block_hash, tx_hash, tx_index, log_index,
		user_address, token_address, token_symbol,
		raw_token_amount, token_amount, raw_lp_amount, lp_amount
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	ON CONFLICT (tx_hash, log_index) DO NOTHING
`

const insertPlaySQL = `
	INSERT INTO play_events (
		block_number, block_timestamp, block_hash, tx_hash, tx_index, log_index,
		player, fulfilled, play_id, request_id,
		input_token, raw_input_amount, input_amount,
		output_token, repeats, table_id, random_word, outcome_levels,
		raw_output_amount, output_total_amount, output_exp_amount
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	ON CONFLICT (tx_hash, log_index) DO NOTHING
`

const foldLeaderboardSQL = `
	INSERT INTO leaderboard (
		player, input_usd, output_usd, exp_amount, block_number, block_timestamp, payout_ratio, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		CASE WHEN $2::double precision > 0 THEN $3::double precision / $2::double precision ELSE 0 END,
		now()
	)
	ON CONFLICT (player) DO UPDATE SET
		input_usd = leaderboard.input_usd + EXCLUDED.input_usd,
		output_usd = leaderboard.output_usd + EXCLUDED.output_usd,
		exp_amount = leaderboard.exp_amount + EXCLUDED.exp_amount,
		block_number = GREATEST(leaderboard.block_number, EXCLUDED.block_number),
		block_timestamp = GREATEST(leaderboard.block_timestamp, EXCLUDED.block_timestamp),
		payout_ratio = CASE
			WHEN leaderboard.input_usd + EXCLUDED.input_usd > 0
			THEN (leaderboard.output_usd + EXCLUDED.output_usd) / (leaderboard.input_usd + EXCLUDED.input_usd)
			ELSE 0
		END,
		updated_at = now()
`

// ApplyBatch persists one ingestion pass as a single transaction. Events are
// deduplicated on (tx_hash, log_index); only plays that were actually inserted
// contribute their leaderboard delta, so replaying a covered range is a no-op.
func (s *Store) ApplyBatch(ctx context.Context, batch model.IngestBatch) (model.IngestResult, error) {
	var result model.IngestResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, evt := range batch.Deposits {
		tag, err := tx.Exec(ctx, insertDepositSQL,
			int64(evt.BlockNumber), int64(evt.BlockTimestamp), evt.BlockHash,
			evt.TxHash, int64(evt.TxIndex), int64(evt.LogIndex),
			evt.User, evt.TokenAddress, evt.TokenSymbol,
			evt.RawTokenAmount, evt.TokenAmount, evt.RawLpAmount, evt.LpAmount,
		)
		if err != nil {
			return result, fmt.Errorf("insert deposit %s:%d: %w", evt.TxHash, evt.LogIndex, err)
		}
		result.Deposits += int(tag.RowsAffected())
	}

	for _, evt := range batch.Withdrawals {
		tag, err := tx.Exec(ctx, insertWithdrawSQL,
			int64(evt.BlockNumber), int64(evt.BlockTimestamp), evt.BlockHash,
			evt.TxHash, int64(evt.TxIndex), int64(evt.LogIndex),
			evt.User, evt.TokenAddress, evt.TokenSymbol,
			evt.RawTokenAmount, evt.TokenAmount, evt.RawLpAmount, evt.LpAmount,
		)
		if err != nil {
			return result, fmt.Errorf("insert withdrawal %s:%d: %w", evt.TxHash, evt.LogIndex, err)
		}
		result.Withdrawals += int(tag.RowsAffected())
	}

	// Accumulate per-player deltas from the plays that are new to this store.
	folded := make(map[string]model.LeaderboardDelta)
	for _, evt := range batch.Plays {
		tag, err := tx.Exec(ctx, insertPlaySQL,
			int64(evt.BlockNumber), int64(evt.BlockTimestamp), evt.BlockHash,
			evt.TxHash, int64(evt.TxIndex), int64(evt.LogIndex),
			evt.Player, evt.Fulfilled, evt.PlayID, evt.RequestID,
			evt.InputToken, evt.RawInputAmount, evt.InputAmount,
			evt.OutputToken, int64(evt.Repeats), int64(evt.TableID), evt.RandomWord, levelsToInt64(evt.OutcomeLevels),
			evt.RawOutputAmount, evt.OutputTotalAmount, evt.OutputExpAmount,
		)
		if err != nil {
			return result, fmt.Errorf("insert play %s:%d: %w", evt.TxHash, evt.LogIndex, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		result.Plays++

		delta, ok := batch.Deltas[evt.Key()]
		if !ok {
			return result, fmt.Errorf("missing leaderboard delta for play %s:%d", evt.TxHash, evt.LogIndex)
		}
		merged := folded[delta.Player]
		if merged.Player == "" {
			merged = delta
		} else {
			merged.Merge(delta)
		}
		folded[delta.Player] = merged
	}

	for _, delta := range folded {
		_, err := tx.Exec(ctx, foldLeaderboardSQL,
			delta.Player, delta.InputUSD, delta.OutputUSD, delta.ExpAmount,
			int64(delta.BlockNumber), int64(delta.BlockTimestamp),
		)
		if err != nil {
			return result, fmt.Errorf("fold leaderboard %s: %w", delta.Player, err)
		}
	}

	for stream, block := range batch.Cursors {
		if _, err := tx.Exec(ctx, advanceCursorSQL, string(stream), int64(block)); err != nil {
			return result, fmt.Errorf("advance cursor %s: %w", stream, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func levelsToInt64(levels []uint64) []int64 {
	out := make([]int64, 0, len(levels))
	for _, level := range levels {
		out = append(out, int64(level))
	}
	return out
}
