package api

import (
	"net/http"
	"strconv"

	"github.com/jdholdren/gossip/internal/gossip"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// parsePageParams reads 1-based page pagination from the query string
// (?page=2&limit=10), falling back to sane defaults.
func parsePageParams(r *http.Request) gossip.Page {
	query := r.URL.Query()

	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}

	return gossip.Page{Page: page, Limit: limit}
}

// pageMeta is the pagination block attached to list responses.
type pageMeta struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	PageTotal int `json:"page_total"`
}
