package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"lotteryScope/internal/model"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parsePage extracts pagination and ordering parameters from the query string.
// Defaults: page=0, newest first by block number.
func parsePage(r *http.Request) model.PageRequest {
	q := r.URL.Query()

	page := 0
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}

	order := model.SortDesc
	if q.Get("order") == "asc" {
		order = model.SortAsc
	}

	return model.PageRequest{
		Page:    page,
		OrderBy: q.Get("order_by"),
		Order:   order,
	}
}

// parseTimeRange reads optional unix-second from/to bounds. A missing or
// invalid bound stays zero; callers treat a zero end bound as open-ended.
func parseTimeRange(r *http.Request) (from, to time.Time) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil && sec > 0 {
			from = time.Unix(sec, 0).UTC()
		}
	}
	if v := q.Get("to"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil && sec > 0 {
			to = time.Unix(sec, 0).UTC()
		}
	}
	return from, to
}
