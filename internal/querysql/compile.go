// Package querysql compiles queryir queries to parameterized SQLite over
// the store's updates table.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/queryir"
)

// Columns is the column list every compiled query returns, in scan order.
const Columns = "seq, cycle, key, direction, kind, value"

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// CRITICAL: every query ends in ORDER BY with a unique tiebreaker, so two
// reads of the same recording return rows in the same order.
// CRITICAL: values are always parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL and its parameters.
// The query is validated first; an invalid query does not compile.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Updates:
		return c.compileUpdates(query)
	case *queryir.Updates:
		return c.compileUpdates(*query)
	case queryir.Latest:
		return c.compileLatest(query)
	case *queryir.Latest:
		return c.compileLatest(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileUpdates(q queryir.Updates) (string, []any, error) {
	where, params, err := c.compileWhere(q.Run, q.Filter)
	if err != nil {
		return "", nil, err
	}

	// MANDATORY: seq breaks ties within a cycle.
	sql := "SELECT " + Columns + " FROM updates WHERE " + where +
		" ORDER BY cycle ASC, seq ASC"
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

// compileLatest ranks each channel's matching updates newest first and keeps
// rank 1. The filter applies before ranking.
func (c *SQLCompiler) compileLatest(q queryir.Latest) (string, []any, error) {
	where, params, err := c.compileWhere(q.Run, q.Filter)
	if err != nil {
		return "", nil, err
	}

	sql := "SELECT " + Columns + " FROM (" +
		"SELECT " + Columns + ", ROW_NUMBER() OVER (" +
		"PARTITION BY key, direction ORDER BY cycle DESC, seq DESC) AS rn" +
		" FROM updates WHERE " + where +
		") WHERE rn = 1" +
		" ORDER BY key COLLATE BINARY ASC, direction COLLATE BINARY ASC"
	return sql, params, nil
}

func (c *SQLCompiler) compileWhere(run string, filter queryir.Predicate) (string, []any, error) {
	where := "run_id = ?"
	params := []any{run}
	if filter == nil {
		return where, params, nil
	}
	filterSQL, filterParams, err := c.compilePredicate(filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return where + " AND " + filterSQL, append(params, filterParams...), nil
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.KeyEquals:
		return "key = ?", []any{pred.Key}, nil
	case queryir.KeyPrefix:
		return `key LIKE ? ESCAPE '\'`, []any{escapeLike(pred.Prefix) + "%"}, nil
	case queryir.DirectionIs:
		return "direction = ?", []any{string(pred.Direction)}, nil
	case queryir.CycleRange:
		if pred.Open() {
			return "cycle >= ?", []any{pred.From}, nil
		}
		return "cycle BETWEEN ? AND ?", []any{pred.From, pred.To}, nil
	case queryir.ValueEquals:
		return "(kind = ? AND value = ?)",
			[]any{pred.Value.Kind().String(), ir.FormatValue(pred.Value)}, nil
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileAnd(pred queryir.And) (string, []any, error) {
	if len(pred.Predicates) == 0 {
		// Vacuous truth
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(pred.Predicates))
	var params []any
	for _, sub := range pred.Predicates {
		sql, subParams, err := c.compilePredicate(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, subParams...)
	}
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

// escapeLike escapes LIKE wildcards so a prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
