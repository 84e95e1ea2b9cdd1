package common

import (
	"net/http"
	"strconv"
)

const maxPerPage = 100

// ParsePagination reads the page and limit query parameters for list
// endpoints. Page starts at 1; limit falls back to defaultPerPage and is
// capped so a single request cannot drag the whole table.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	q := r.URL.Query()
	page = positiveInt(q.Get("page"), 1)
	perPage = positiveInt(q.Get("limit"), defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func positiveInt(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
