package service

import "math"

const (
	defaultPageSize = 50
	maxPageSize     = 100
	// maxOffset keeps OFFSET inside a Postgres integer.
	maxOffset = math.MaxInt32
)

// NormalizePage applies the listing defaults: page 1, 50 items, at most 100.
// Pages past maxOffset are clamped to the last reachable page.
func NormalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if lastPage := maxOffset/limit + 1; page > lastPage {
		page = lastPage
	}
	return page, limit
}

func offset(page, limit int) int {
	return (page - 1) * limit
}
