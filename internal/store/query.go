package store

import (
	"context"
	"fmt"

	"github.com/roach88/rcore/internal/queryir"
	"github.com/roach88/rcore/internal/querysql"
)

// Query runs a compiled update query.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Query(ctx context.Context, q queryir.Query) ([]Update, error) {
	sql, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	updates := []Update{}
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query: %w", err)
	}
	return updates, nil
}
