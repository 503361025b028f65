package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Capabilities caches which optional schema columns exist. The probe runs
// once at startup so the SQL selected at query time is static; no statement
// ever has to catch "column does not exist" and retry.
type Capabilities struct {
	cols map[string]bool
}

// probedTables lists the tables whose optional columns vary across schema
// deployments. Today only the archived flag of the profile tables varies.
var probedTables = []string{"staff_users", "salaries"}

// Probe queries information_schema.columns for the tables of interest and
// returns the cached capability set.
func Probe(ctx context.Context, pool *pgxpool.Pool) (*Capabilities, error) {
	rows, err := pool.Query(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ANY($1)`,
		probedTables)
	if err != nil {
		return nil, fmt.Errorf("probe schema capabilities: %w", err)
	}
	defer rows.Close()

	caps := &Capabilities{cols: make(map[string]bool)}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan capability row: %w", err)
		}
		caps.cols[table+"."+column] = true
	}
	return caps, rows.Err()
}

// HasColumn reports whether table.column exists in the probed schema.
func (c *Capabilities) HasColumn(table, column string) bool {
	if c == nil {
		return false
	}
	return c.cols[table+"."+column]
}
