// Package server exposes the read-side HTTP API: rankings, per-player
// histories, and the reserve time series.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lotteryScope/internal/model"
)

// Rankings serves the cached leaderboard views.
type Rankings interface {
	Winners(ctx context.Context) ([]model.LeaderboardEntry, error)
	Lucky(ctx context.Context) ([]model.LeaderboardEntry, error)
	Exp(ctx context.Context) ([]model.LeaderboardEntry, error)
	Recent(ctx context.Context) ([]model.PlayEvent, error)
}

// History serves paginated per-player event histories.
type History interface {
	PlayerPlays(ctx context.Context, player string, page model.PageRequest) ([]model.PlayEvent, int64, error)
	PlayerDeposits(ctx context.Context, user string, page model.PageRequest) ([]model.DepositEvent, int64, error)
	PlayerWithdrawals(ctx context.Context, user string, page model.PageRequest) ([]model.WithdrawEvent, int64, error)
}

// Series serves the sampled reserve time series.
type Series interface {
	PoolSizeSeries(ctx context.Context, tokenAddress string, from, to time.Time) ([]model.PoolSizeSample, error)
	PriceSeries(ctx context.Context, tokenAddress string, from, to time.Time) ([]model.PriceSample, error)
}

// Server wires the HTTP routes over the read-side services.
type Server struct {
	rankings Rankings
	history  History
	series   Series
	logger   *zap.Logger
}

func New(rankings Rankings, history History, series Series, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		rankings: rankings,
		history:  history,
		series:   series,
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/winner-ranking", s.handleWinnerRanking)
	mux.HandleFunc("GET /api/lucky-ranking", s.handleLuckyRanking)
	mux.HandleFunc("GET /api/exp-ranking", s.handleExpRanking)
	mux.HandleFunc("GET /api/recent-winners", s.handleRecentWinners)
	mux.HandleFunc("GET /api/play-history", s.handlePlayHistory)
	mux.HandleFunc("GET /api/deposit-history", s.handleDepositHistory)
	mux.HandleFunc("GET /api/withdraw-history", s.handleWithdrawHistory)
	mux.HandleFunc("GET /api/pool-sizes", s.handlePoolSizes)
	mux.HandleFunc("GET /api/prices", s.handlePrices)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type rankingResponse struct {
	Entries []model.LeaderboardEntry `json:"entries"`
}

func (s *Server) handleWinnerRanking(w http.ResponseWriter, r *http.Request) {
	s.serveRanking(w, r, "winner ranking", s.rankings.Winners)
}

func (s *Server) handleLuckyRanking(w http.ResponseWriter, r *http.Request) {
	s.serveRanking(w, r, "lucky ranking", s.rankings.Lucky)
}

func (s *Server) handleExpRanking(w http.ResponseWriter, r *http.Request) {
	s.serveRanking(w, r, "exp ranking", s.rankings.Exp)
}

func (s *Server) serveRanking(w http.ResponseWriter, r *http.Request, name string, load func(context.Context) ([]model.LeaderboardEntry, error)) {
	entries, err := load(r.Context())
	if err != nil {
		s.logger.Error("load ranking failed", zap.String("ranking", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load "+name)
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{Entries: entries})
}

// handleRecentWinners returns the latest plays with a non-zero payout.
// GET /api/recent-winners
func (s *Server) handleRecentWinners(w http.ResponseWriter, r *http.Request) {
	plays, err := s.rankings.Recent(r.Context())
	if err != nil {
		s.logger.Error("load recent winners failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load recent winners")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.PlayEvent{"plays": plays})
}

type playHistoryResponse struct {
	Plays []model.PlayEvent `json:"plays"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
}

// handlePlayHistory returns one page of a player's play history.
// GET /api/play-history?player=0x...&page=0&order_by=block_number&order=desc
func (s *Server) handlePlayHistory(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		writeError(w, http.StatusBadRequest, "missing player address")
		return
	}
	page := parsePage(r)

	plays, total, err := s.history.PlayerPlays(r.Context(), player, page)
	if err != nil {
		s.logger.Error("load play history failed", zap.String("player", player), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load play history")
		return
	}
	writeJSON(w, http.StatusOK, playHistoryResponse{Plays: plays, Total: total, Page: page.Page})
}

type transferHistoryResponse[T any] struct {
	Events []T   `json:"events"`
	Total  int64 `json:"total"`
	Page   int   `json:"page"`
}

// handleDepositHistory returns one page of a user's deposit history.
// GET /api/deposit-history?user=0x...&page=0
func (s *Server) handleDepositHistory(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user address")
		return
	}
	page := parsePage(r)

	events, total, err := s.history.PlayerDeposits(r.Context(), user, page)
	if err != nil {
		s.logger.Error("load deposit history failed", zap.String("user", user), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load deposit history")
		return
	}
	writeJSON(w, http.StatusOK, transferHistoryResponse[model.DepositEvent]{Events: events, Total: total, Page: page.Page})
}

// handleWithdrawHistory returns one page of a user's withdrawal history.
// GET /api/withdraw-history?user=0x...&page=0
func (s *Server) handleWithdrawHistory(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user address")
		return
	}
	page := parsePage(r)

	events, total, err := s.history.PlayerWithdrawals(r.Context(), user, page)
	if err != nil {
		s.logger.Error("load withdraw history failed", zap.String("user", user), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load withdraw history")
		return
	}
	writeJSON(w, http.StatusOK, transferHistoryResponse[model.WithdrawEvent]{Events: events, Total: total, Page: page.Page})
}

// handlePoolSizes returns pool size samples for one token.
// GET /api/pool-sizes?token=0x...&from=1700000000&to=1700086400
// A missing "to" bound appends a live reading.
func (s *Server) handlePoolSizes(w http.ResponseWriter, r *http.Request) {
	tokenAddress := r.URL.Query().Get("token")
	if tokenAddress == "" {
		writeError(w, http.StatusBadRequest, "missing token address")
		return
	}
	from, to := parseTimeRange(r)

	samples, err := s.series.PoolSizeSeries(r.Context(), tokenAddress, from, to)
	if err != nil {
		s.logger.Error("load pool size series failed", zap.String("token", tokenAddress), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load pool sizes")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.PoolSizeSample{"samples": samples})
}

// handlePrices returns LP price samples for one token, same bounds as
// handlePoolSizes.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	tokenAddress := r.URL.Query().Get("token")
	if tokenAddress == "" {
		writeError(w, http.StatusBadRequest, "missing token address")
		return
	}
	from, to := parseTimeRange(r)

	samples, err := s.series.PriceSeries(r.Context(), tokenAddress, from, to)
	if err != nil {
		s.logger.Error("load price series failed", zap.String("token", tokenAddress), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load prices")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.PriceSample{"samples": samples})
}
