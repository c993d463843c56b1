package store

import (
	"fmt"
	"strings"
)

// listQuery describes a filtered, ordered listing of one table.
//
// Every listing ends in an id tiebreaker so rows created within the same
// timestamp come back in a stable order. Filter values are always bound as
// parameters.
type listQuery struct {
	table   string
	columns string

	// filters are equality predicates applied in order. Empty values are
	// skipped, so a zero filter matches every row.
	filters []equals

	// orderBy is the primary sort column, descending.
	orderBy string

	limit int
}

type equals struct {
	column string
	value  string
}

// where appends an equality predicate on column.
func (q *listQuery) where(column, value string) *listQuery {
	q.filters = append(q.filters, equals{column: column, value: value})
	return q
}

// compile renders the query as parameterized SQL.
func (q *listQuery) compile() (string, []any, error) {
	if q.table == "" || q.columns == "" {
		return "", nil, fmt.Errorf("list query: table and columns are required")
	}
	if q.limit <= 0 {
		return "", nil, fmt.Errorf("list query on %s: limit must be positive, got %d", q.table, q.limit)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", q.columns, q.table)

	var args []any
	var preds []string
	for _, f := range q.filters {
		if f.value == "" {
			continue
		}
		preds = append(preds, f.column+" = ?")
		args = append(args, f.value)
	}
	if len(preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}

	b.WriteString(" ORDER BY ")
	if q.orderBy != "" && q.orderBy != "id" {
		b.WriteString(q.orderBy + " DESC, ")
	}
	b.WriteString("id DESC LIMIT ?")
	args = append(args, q.limit)

	return b.String(), args, nil
}
