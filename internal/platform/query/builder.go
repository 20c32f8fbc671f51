// Package query builds parameterized list queries: substring search across
// whitelisted columns, exact filters, inclusive date ranges and sorting.
package query

import (
	"fmt"
	"strings"
)

// SortKey maps a client-visible sort name to a database column.
type SortKey struct {
	Column string
}

// ListQuery accumulates WHERE clauses for a count/data query pair.
type ListQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewListQuery creates a ListQuery for the given table and column list.
func NewListQuery(table, cols string) *ListQuery {
	return &ListQuery{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Idx returns the next available parameter index.
func (q *ListQuery) Idx() int { return q.idx }

// Add appends a raw WHERE clause fragment (without leading "AND").
func (q *ListQuery) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// Search adds a case-insensitive substring match over the given columns,
// joined with OR. An empty term is a no-op so plain listings reuse the
// same code path.
func (q *ListQuery) Search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	pattern := "%" + EscapeLike(term) + "%"
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, q.idx)
	}
	q.where += " AND (" + strings.Join(parts, " OR ") + ")"
	q.args = append(q.args, pattern)
	q.idx++
}

// Filter adds an exact-match condition.
func (q *ListQuery) Filter(column string, value interface{}) {
	q.where += fmt.Sprintf(" AND %s = $%d", column, q.idx)
	q.args = append(q.args, value)
	q.idx++
}

// DateRange adds an inclusive [from, to] window on a date column. Either
// bound may be empty.
func (q *ListQuery) DateRange(column, from, to string) {
	if from != "" {
		q.where += fmt.Sprintf(" AND %s >= $%d", column, q.idx)
		q.args = append(q.args, from)
		q.idx++
	}
	if to != "" {
		q.where += fmt.Sprintf(" AND %s <= $%d", column, q.idx)
		q.args = append(q.args, to)
		q.idx++
	}
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *ListQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// ApplySort processes a sort parameter against a whitelist of sort keys.
// The value is a comma-separated list of key names, each optionally
// prefixed with - for DESC. Unknown keys are ignored; if nothing matches
// the defaultOrder is used.
func (q *ListQuery) ApplySort(sortParam, defaultOrder string, keys map[string]SortKey) {
	if sortParam == "" {
		q.orderBy = defaultOrder
		return
	}
	var parts []string
	for _, field := range strings.Split(sortParam, ",") {
		field = strings.TrimSpace(field)
		desc := false
		if strings.HasPrefix(field, "-") {
			desc = true
			field = field[1:]
		}
		if key, ok := keys[field]; ok {
			if desc {
				parts = append(parts, key.Column+" DESC")
			} else {
				parts = append(parts, key.Column+" ASC")
			}
		}
	}
	if len(parts) > 0 {
		q.orderBy = strings.Join(parts, ", ")
	} else {
		q.orderBy = defaultOrder
	}
}

// CountSQL returns the count query SQL.
func (q *ListQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

// CountArgs returns the arguments for the count query.
func (q *ListQuery) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET.
func (q *ListQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the arguments for the data query (filter args + limit + offset).
func (q *ListQuery) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// EscapeLike escapes LIKE metacharacters in a user-supplied search term so
// it matches literally.
func EscapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}
