// Package prices refreshes the USD prices in the token registry from a
// market data API. Tokens without a market symbol keep their configured
// fixed price.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"lotteryScope/internal/token"
)

// DefaultBaseURL points at the cryptocompare single-symbol price endpoint.
const DefaultBaseURL = "https://min-api.cryptocompare.com/data/price"

// Updater polls USD quotes for every registry token with a market symbol.
type Updater struct {
	baseURL  string
	client   *http.Client
	registry *token.Registry
	tokens   []token.Token
	logger   *zap.Logger
}

// NewUpdater builds an updater over the registry's reserve tokens. baseURL
// empty selects the default endpoint; client nil selects a 10s-timeout client.
func NewUpdater(baseURL string, client *http.Client, registry *token.Registry, logger *zap.Logger) *Updater {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := make([]token.Token, 0)
	for _, t := range registry.Reserve() {
		if t.PriceSymbol != "" {
			tokens = append(tokens, t)
		}
	}
	return &Updater{
		baseURL:  baseURL,
		client:   client,
		registry: registry,
		tokens:   tokens,
		logger:   logger,
	}
}

// RunOnce fetches a fresh USD quote for each priced token and writes it into
// the registry. A failed quote keeps the previous price and is only logged,
// so one flaky symbol never stalls the others.
func (u *Updater) RunOnce(ctx context.Context) error {
	var lastErr error
	for _, t := range u.tokens {
		price, err := u.quote(ctx, t.PriceSymbol)
		if err != nil {
			u.logger.Warn("price refresh failed",
				zap.String("symbol", t.PriceSymbol),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		u.registry.SetPrice(t.Address, price)
		u.logger.Debug("price refreshed",
			zap.String("symbol", t.PriceSymbol),
			zap.Float64("usd", price),
		)
	}
	return lastErr
}

func (u *Updater) quote(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s?fsym=%s&tsyms=USD", u.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("quote %s: status %d: %s", symbol, resp.StatusCode, body)
	}

	var payload struct {
		USD float64 `json:"USD"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("quote %s: decode: %w", symbol, err)
	}
	if payload.USD <= 0 {
		return 0, fmt.Errorf("quote %s: non-positive price %f", symbol, payload.USD)
	}
	return payload.USD, nil
}
