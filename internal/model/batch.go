package model

// IngestBatch is the unit of work produced by one synchronization pass. It is
// applied to storage as a single transaction: event inserts, leaderboard fold,
// and cursor advances either all land or none do.
type IngestBatch struct {
	Deposits    []DepositEvent
	Withdrawals []WithdrawEvent
	Plays       []PlayEvent
	// Deltas holds the per-play leaderboard contribution keyed by event.
	// Only deltas of plays that are newly inserted get folded, which keeps
	// replays of already-covered ranges from double-counting.
	Deltas  map[EventKey]LeaderboardDelta
	Cursors map[Stream]uint64
}

// IngestResult reports how many events of the batch were newly persisted.
type IngestResult struct {
	Deposits    int
	Withdrawals int
	Plays       int
}

// Total returns the number of newly persisted events across all streams.
func (r IngestResult) Total() int {
	return r.Deposits + r.Withdrawals + r.Plays
}
