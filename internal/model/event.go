package model

// Stream identifies one contract event category tracked with its own cursor.
type Stream string

const (
	StreamDeposit  Stream = "deposit"
	StreamWithdraw Stream = "withdraw"
	StreamPlay     Stream = "play"
)

// Streams lists every tracked stream in a fixed order.
func Streams() []Stream {
	return []Stream{StreamDeposit, StreamWithdraw, StreamPlay}
}

// EventBase carries the chain metadata shared by every event variant.
type EventBase struct {
	BlockNumber    uint64 `json:"block_number"`
	BlockTimestamp uint64 `json:"block_timestamp"`
	BlockHash      string `json:"block_hash"`
	TxHash         string `json:"tx_hash"`
	TxIndex        uint64 `json:"tx_index"`
	LogIndex       uint64 `json:"log_index"`
}

// EventKey uniquely identifies an event within a stream.
type EventKey struct {
	TxHash   string
	LogIndex uint64
}

// Key returns the dedup key of the event.
func (b EventBase) Key() EventKey {
	return EventKey{TxHash: b.TxHash, LogIndex: b.LogIndex}
}

// DepositEvent is a decoded TokenDeposited contract event.
type DepositEvent struct {
	EventBase
	User           string  `json:"user"`
	TokenAddress   string  `json:"token_address"`
	TokenSymbol    string  `json:"token_symbol"`
	RawTokenAmount string  `json:"raw_token_amount"`
	TokenAmount    float64 `json:"token_amount"`
	RawLpAmount    string  `json:"raw_lp_amount"`
	LpAmount       float64 `json:"lp_amount"`
}

// WithdrawEvent is a decoded TokenWithdrawn contract event.
type WithdrawEvent struct {
	EventBase
	User           string  `json:"user"`
	TokenAddress   string  `json:"token_address"`
	TokenSymbol    string  `json:"token_symbol"`
	RawTokenAmount string  `json:"raw_token_amount"`
	TokenAmount    float64 `json:"token_amount"`
	RawLpAmount    string  `json:"raw_lp_amount"`
	LpAmount       float64 `json:"lp_amount"`
}

// PlayEvent is a decoded PlayFulfilled contract event.
type PlayEvent struct {
	EventBase
	Player            string   `json:"player"`
	Fulfilled         bool     `json:"fulfilled"`
	PlayID            string   `json:"play_id"`
	RequestID         string   `json:"request_id"`
	InputToken        string   `json:"input_token"`
	RawInputAmount    string   `json:"raw_input_amount"`
	InputAmount       float64  `json:"input_amount"`
	OutputToken       string   `json:"output_token"`
	Repeats           uint64   `json:"repeats"`
	TableID           uint64   `json:"table_id"`
	RandomWord        string   `json:"random_word"`
	OutcomeLevels     []uint64 `json:"outcome_levels"`
	RawOutputAmount   string   `json:"raw_output_amount"`
	OutputTotalAmount float64  `json:"output_total_amount"`
	OutputExpAmount   float64  `json:"output_exp_amount"`
}
