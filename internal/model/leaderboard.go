package model

// LeaderboardEntry holds cumulative per-player totals. Entries are created on
// the first contributing play and only ever grow; PayoutRatio is always
// recomputed from the cumulative sums, never from a single delta.
type LeaderboardEntry struct {
	Player         string  `json:"player"`
	InputUSD       float64 `json:"input_usd"`
	OutputUSD      float64 `json:"output_usd"`
	ExpAmount      float64 `json:"exp_amount"`
	BlockNumber    uint64  `json:"block_number"`
	BlockTimestamp uint64  `json:"block_timestamp"`
	PayoutRatio    float64 `json:"payout_ratio"`
}

// LeaderboardDelta is the per-event contribution folded into an entry.
type LeaderboardDelta struct {
	Player         string
	InputUSD       float64
	OutputUSD      float64
	ExpAmount      float64
	BlockNumber    uint64
	BlockTimestamp uint64
}

// Merge accumulates another delta for the same player.
func (d *LeaderboardDelta) Merge(other LeaderboardDelta) {
	d.InputUSD += other.InputUSD
	d.OutputUSD += other.OutputUSD
	d.ExpAmount += other.ExpAmount
	if other.BlockNumber > d.BlockNumber {
		d.BlockNumber = other.BlockNumber
	}
	if other.BlockTimestamp > d.BlockTimestamp {
		d.BlockTimestamp = other.BlockTimestamp
	}
}
