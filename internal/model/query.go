package model

// SortOrder is a query sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PageRequest selects one page of a per-player history query. Page is
// zero-based; OrderBy names a column from the store's whitelist and falls back
// to block number when empty or unknown.
type PageRequest struct {
	Page    int
	OrderBy string
	Order   SortOrder
}
