package model

import "time"

// PoolSizeSample is an immutable reading of the prize reserve held in one token.
type PoolSizeSample struct {
	TokenAddress string    `json:"token_address"`
	PoolSize     float64   `json:"pool_size"`
	Time         time.Time `json:"time"`
}

// PriceSample is an immutable reading of the LP share price for a token pair.
type PriceSample struct {
	TokenAddress string    `json:"token_address"`
	LpAddress    string    `json:"lp_address"`
	Price        float64   `json:"price"`
	Time         time.Time `json:"time"`
}
