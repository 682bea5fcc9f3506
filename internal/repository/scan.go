package repository

import (
	sq "github.com/Masterminds/squirrel"
)

// psql builds dynamic queries with Postgres $N placeholders. Static queries
// stay hand-written; squirrel is only for the filtered list endpoints.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// clampPage applies the per-endpoint pagination defaults and caps.
func clampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
