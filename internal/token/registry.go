// Package token holds the explicit token registry injected into the ingestor,
// aggregator, and sampler. Token sets and seed prices come from configuration,
// so a deployment can swap chains without touching code.
package token

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Token describes one ERC-20 the pipeline knows about.
type Token struct {
	Address     common.Address
	Symbol      string
	Decimals    uint8
	LpAddress   common.Address // zero when the token has no LP pair
	LpDecimals  uint8
	PriceSymbol string  // market data symbol (BTC, ETH, ...); empty for fixed-price tokens
	SeedPrice   float64 // initial USD price, kept until the first refresh
}

// HasLp reports whether the token has an LP pair token.
func (t Token) HasLp() bool {
	return t.LpAddress != (common.Address{})
}

// Registry resolves token metadata and serves the current USD price map.
// Prices are read on every ingestion pass and written by the price updater,
// so the map is guarded by a RWMutex.
type Registry struct {
	mu     sync.RWMutex
	tokens map[common.Address]Token
	prices map[common.Address]float64
}

// NewRegistry builds a registry from the configured token set.
func NewRegistry(tokens []Token) (*Registry, error) {
	r := &Registry{
		tokens: make(map[common.Address]Token, len(tokens)),
		prices: make(map[common.Address]float64, len(tokens)),
	}
	for _, t := range tokens {
		if t.Address == (common.Address{}) {
			return nil, fmt.Errorf("token %q has no address", t.Symbol)
		}
		if _, ok := r.tokens[t.Address]; ok {
			return nil, fmt.Errorf("duplicate token address %s", t.Address.Hex())
		}
		r.tokens[t.Address] = t
		if t.SeedPrice > 0 {
			r.prices[t.Address] = t.SeedPrice
		}
	}
	return r, nil
}

// ByAddress looks a token up by its hex address, case-insensitively.
func (r *Registry) ByAddress(address string) (Token, bool) {
	if !common.IsHexAddress(address) {
		return Token{}, false
	}
	t, ok := r.tokens[common.HexToAddress(address)]
	return t, ok
}

// Reserve returns the tokens backing the prize pool, i.e. those with an LP
// pair. These are the assets sampled and price-refreshed.
func (r *Registry) Reserve() []Token {
	out := make([]Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		if t.HasLp() {
			out = append(out, t)
		}
	}
	return out
}

// Price returns the current USD price for a token address.
func (r *Registry) Price(address string) (float64, bool) {
	if !common.IsHexAddress(address) {
		return 0, false
	}
	r.mu.RLock()
	price, ok := r.prices[common.HexToAddress(address)]
	r.mu.RUnlock()
	return price, ok
}

// SetPrice updates the USD price for a token address.
func (r *Registry) SetPrice(address common.Address, price float64) {
	r.mu.Lock()
	r.prices[address] = price
	r.mu.Unlock()
}

// SymbolFor returns the token symbol, or the lowercased address when unknown.
func (r *Registry) SymbolFor(address string) string {
	if t, ok := r.ByAddress(address); ok {
		return t.Symbol
	}
	return strings.ToLower(address)
}
