package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"lotteryScope/internal/model"
)

// PageSize is the fixed page length for history queries.
const PageSize = 10

const leaderboardColumns = `player, input_usd, output_usd, exp_amount, block_number, block_timestamp, payout_ratio`

func (s *Store) topEntries(ctx context.Context, orderColumn string, limit int) ([]model.LeaderboardEntry, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM leaderboard ORDER BY %s DESC, player ASC LIMIT $1`,
		leaderboardColumns, orderColumn,
	)
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry model.LeaderboardEntry
		var blockNumber, blockTimestamp int64
		if err := rows.Scan(
			&entry.Player, &entry.InputUSD, &entry.OutputUSD, &entry.ExpAmount,
			&blockNumber, &blockTimestamp, &entry.PayoutRatio,
		); err != nil {
			return nil, err
		}
		entry.BlockNumber = uint64(blockNumber)
		entry.BlockTimestamp = uint64(blockTimestamp)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// TopByOutput returns the top entries by cumulative payout value.
func (s *Store) TopByOutput(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return s.topEntries(ctx, "output_usd", limit)
}

// TopByRatio returns the top entries by payout ratio.
func (s *Store) TopByRatio(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return s.topEntries(ctx, "payout_ratio", limit)
}

// TopByExp returns the top entries by cumulative EXP.
func (s *Store) TopByExp(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return s.topEntries(ctx, "exp_amount", limit)
}

const playColumns = `block_number, block_timestamp, block_hash, tx_hash, tx_index, log_index,
	player, fulfilled, play_id, request_id,
	input_token, raw_input_amount, input_amount,
	output_token, repeats, table_id, random_word, outcome_levels,
	raw_output_amount, output_total_amount, output_exp_amount`

// RecentWinners returns the latest plays with a non-zero payout, newest first.
func (s *Store) RecentWinners(ctx context.Context, limit int) ([]model.PlayEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM play_events
		WHERE output_total_amount > 0
		ORDER BY block_number DESC, log_index DESC
		LIMIT $1`, playColumns)
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlays(rows)
}

var playSortColumns = map[string]string{
	"block_number":        "block_number",
	"block_timestamp":     "block_timestamp",
	"input_amount":        "input_amount",
	"output_total_amount": "output_total_amount",
	"output_exp_amount":   "output_exp_amount",
}

// PlayerPlays returns one page of a player's play history plus the total count.
func (s *Store) PlayerPlays(ctx context.Context, player string, page model.PageRequest) ([]model.PlayEvent, int64, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM play_events
		WHERE player = $1
		ORDER BY %s %s, log_index %s
		LIMIT $2 OFFSET $3`,
		playColumns, sortColumn(playSortColumns, page.OrderBy), sortDirection(page.Order), sortDirection(page.Order))
	rows, err := s.pool.Query(ctx, query, player, PageSize, page.Page*PageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	plays, err := scanPlays(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM play_events WHERE player=$1`, player).Scan(&total); err != nil {
		return nil, 0, err
	}
	return plays, total, nil
}

var transferSortColumns = map[string]string{
	"block_number":    "block_number",
	"block_timestamp": "block_timestamp",
	"token_amount":    "token_amount",
	"lp_amount":       "lp_amount",
}

const transferColumns = `block_number, block_timestamp, block_hash, tx_hash, tx_index, log_index,
	user_address, token_address, token_symbol,
	raw_token_amount, token_amount, raw_lp_amount, lp_amount`

// PlayerDeposits returns one page of a user's deposit history plus the total count.
func (s *Store) PlayerDeposits(ctx context.Context, user string, page model.PageRequest) ([]model.DepositEvent, int64, error) {
	events, total, err := s.playerTransfers(ctx, "deposit_events", user, page)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.DepositEvent, len(events))
	for i, evt := range events {
		out[i] = model.DepositEvent(evt)
	}
	return out, total, nil
}

// PlayerWithdrawals returns one page of a user's withdrawal history plus the total count.
func (s *Store) PlayerWithdrawals(ctx context.Context, user string, page model.PageRequest) ([]model.WithdrawEvent, int64, error) {
	return s.playerTransfers(ctx, "withdraw_events", user, page)
}

func (s *Store) playerTransfers(ctx context.Context, table, user string, page model.PageRequest) ([]model.WithdrawEvent, int64, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_address = $1
		ORDER BY %s %s, log_index %s
		LIMIT $2 OFFSET $3`,
		transferColumns, table, sortColumn(transferSortColumns, page.OrderBy), sortDirection(page.Order), sortDirection(page.Order))
	rows, err := s.pool.Query(ctx, query, user, PageSize, page.Page*PageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.WithdrawEvent, 0, PageSize)
	for rows.Next() {
		var evt model.WithdrawEvent
		var blockNumber, blockTimestamp, txIndex, logIndex int64
		if err := rows.Scan(
			&blockNumber, &blockTimestamp, &evt.BlockHash, &evt.TxHash, &txIndex, &logIndex,
			&evt.User, &evt.TokenAddress, &evt.TokenSymbol,
			&evt.RawTokenAmount, &evt.TokenAmount, &evt.RawLpAmount, &evt.LpAmount,
		); err != nil {
			return nil, 0, err
		}
		evt.BlockNumber = uint64(blockNumber)
		evt.BlockTimestamp = uint64(blockTimestamp)
		evt.TxIndex = uint64(txIndex)
		evt.LogIndex = uint64(logIndex)
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE user_address=$1`, table)
	if err := s.pool.QueryRow(ctx, countQuery, user).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// InsertPoolSizeSamples appends pool size readings.
func (s *Store) InsertPoolSizeSamples(ctx context.Context, samples []model.PoolSizeSample) error {
	if len(samples) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(`
			INSERT INTO pool_size_samples (token_address, pool_size, sampled_at)
			VALUES ($1, $2, $3)`,
			sample.TokenAddress, sample.PoolSize, sample.Time,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range samples {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertPriceSamples appends LP price readings.
func (s *Store) InsertPriceSamples(ctx context.Context, samples []model.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(`
			INSERT INTO price_samples (token_address, lp_address, price, sampled_at)
			VALUES ($1, $2, $3, $4)`,
			sample.TokenAddress, sample.LpAddress, sample.Price, sample.Time,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range samples {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PoolSizeRange returns pool size samples with sampled_at in [from, to).
func (s *Store) PoolSizeRange(ctx context.Context, tokenAddress string, from, to time.Time) ([]model.PoolSizeSample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token_address, pool_size, sampled_at
		FROM pool_size_samples
		WHERE token_address = $1 AND sampled_at >= $2 AND sampled_at < $3
		ORDER BY sampled_at ASC`,
		tokenAddress, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PoolSizeSample
	for rows.Next() {
		var sample model.PoolSizeSample
		if err := rows.Scan(&sample.TokenAddress, &sample.PoolSize, &sample.Time); err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

// PriceRange returns price samples with sampled_at in [from, to).
func (s *Store) PriceRange(ctx context.Context, tokenAddress, lpAddress string, from, to time.Time) ([]model.PriceSample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token_address, lp_address, price, sampled_at
		FROM price_samples
		WHERE token_address = $1 AND lp_address = $2 AND sampled_at >= $3 AND sampled_at < $4
		ORDER BY sampled_at ASC`,
		tokenAddress, lpAddress, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PriceSample
	for rows.Next() {
		var sample model.PriceSample
		if err := rows.Scan(&sample.TokenAddress, &sample.LpAddress, &sample.Price, &sample.Time); err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

func scanPlays(rows pgx.Rows) ([]model.PlayEvent, error) {
	out := make([]model.PlayEvent, 0, PageSize)
	for rows.Next() {
		var evt model.PlayEvent
		var blockNumber, blockTimestamp, txIndex, logIndex, repeats, tableID int64
		var levels []int64
		if err := rows.Scan(
			&blockNumber, &blockTimestamp, &evt.BlockHash, &evt.TxHash, &txIndex, &logIndex,
			&evt.Player, &evt.Fulfilled, &evt.PlayID, &evt.RequestID,
			&evt.InputToken, &evt.RawInputAmount, &evt.InputAmount,
			&evt.OutputToken, &repeats, &tableID, &evt.RandomWord, &levels,
			&evt.RawOutputAmount, &evt.OutputTotalAmount, &evt.OutputExpAmount,
		); err != nil {
			return nil, err
		}
		evt.BlockNumber = uint64(blockNumber)
		evt.BlockTimestamp = uint64(blockTimestamp)
		evt.TxIndex = uint64(txIndex)
		evt.LogIndex = uint64(logIndex)
		evt.Repeats = uint64(repeats)
		evt.TableID = uint64(tableID)
		evt.OutcomeLevels = make([]uint64, 0, len(levels))
		for _, level := range levels {
			evt.OutcomeLevels = append(evt.OutcomeLevels, uint64(level))
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func sortColumn(whitelist map[string]string, requested string) string {
	if column, ok := whitelist[requested]; ok {
		return column
	}
	return "block_number"
}

func sortDirection(order model.SortOrder) string {
	if order == model.SortAsc {
		return "ASC"
	}
	return "DESC"
}
