package postgres

import "context"

// Schema is created lazily at startup; every statement is idempotent so the
// store can be pointed at an empty or an existing database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sync_cursors (
		stream TEXT PRIMARY KEY,
		last_block BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS deposit_events (
		id BIGSERIAL PRIMARY KEY,
		block_number BIGINT NOT NULL,
		block_timestamp BIGINT NOT NULL,
		block_hash TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		tx_index BIGINT NOT NULL,
		log_index BIGINT NOT NULL,
		user_address TEXT NOT NULL,
		token_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		raw_token_amount TEXT NOT NULL,
		token_amount DOUBLE PRECISION NOT NULL,
		raw_lp_amount TEXT NOT NULL,
		lp_amount DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (tx_hash, log_index)
	)`,
	`CREATE INDEX IF NOT EXISTS deposit_events_user_block_idx
		ON deposit_events (user_address, block_number)`,
	`CREATE TABLE IF NOT EXISTS withdraw_events (
		id BIGSERIAL PRIMARY KEY,
		block_number BIGINT NOT NULL,
		block_timestamp BIGINT NOT NULL,
		block_hash TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		tx_index BIGINT NOT NULL,
		log_index BIGINT NOT NULL,
		user_address TEXT NOT NULL,
		token_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		raw_token_amount TEXT NOT NULL,
		token_amount DOUBLE PRECISION NOT NULL,
		raw_lp_amount TEXT NOT NULL,
		lp_amount DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (tx_hash, log_index)
	)`,
	`CREATE INDEX IF NOT EXISTS withdraw_events_user_block_idx
		ON withdraw_events (user_address, block_number)`,
	`CREATE TABLE IF NOT EXISTS play_events (
		id BIGSERIAL PRIMARY KEY,
		block_number BIGINT NOT NULL,
		block_timestamp BIGINT NOT NULL,
		block_hash TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		tx_index BIGINT NOT NULL,
		log_index BIGINT NOT NULL,
		player TEXT NOT NULL,
		fulfilled BOOLEAN NOT NULL,
		play_id TEXT NOT NULL,
		request_id TEXT NOT NULL,
		input_token TEXT NOT NULL,
		raw_input_amount TEXT NOT NULL,
		input_amount DOUBLE PRECISION NOT NULL,
		output_token TEXT NOT NULL,
		repeats BIGINT NOT NULL,
		table_id BIGINT NOT NULL,
		random_word TEXT NOT NULL,
		outcome_levels BIGINT[] NOT NULL,
		raw_output_amount TEXT NOT NULL,
		output_total_amount DOUBLE PRECISION NOT NULL,
		output_exp_amount DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (tx_hash, log_index)
	)`,
	`CREATE INDEX IF NOT EXISTS play_events_player_block_idx
		ON play_events (player, block_number)`,
	`CREATE INDEX IF NOT EXISTS play_events_block_idx
		ON play_events (block_number DESC)`,
	`CREATE TABLE IF NOT EXISTS leaderboard (
		player TEXT PRIMARY KEY,
		input_usd DOUBLE PRECISION NOT NULL,
		output_usd DOUBLE PRECISION NOT NULL,
		exp_amount DOUBLE PRECISION NOT NULL,
		block_number BIGINT NOT NULL,
		block_timestamp BIGINT NOT NULL,
		payout_ratio DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pool_size_samples (
		id BIGSERIAL PRIMARY KEY,
		token_address TEXT NOT NULL,
		pool_size DOUBLE PRECISION NOT NULL,
		sampled_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS pool_size_samples_token_time_idx
		ON pool_size_samples (token_address, sampled_at)`,
	`CREATE TABLE IF NOT EXISTS price_samples (
		id BIGSERIAL PRIMARY KEY,
		token_address TEXT NOT NULL,
		lp_address TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		sampled_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS price_samples_pair_time_idx
		ON price_samples (token_address, lp_address, sampled_at)`,
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
