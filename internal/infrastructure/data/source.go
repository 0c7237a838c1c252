// Package data provides the query capability over logged-experience tables.
package data

import (
	"fmt"

	"github.com/phillip1029/ReAgent/internal/domain/workflow"
)

// RowSource reads logged experience rows from a table backend.
type RowSource interface {
	ScanRows(spec workflow.TableSpec) ([]workflow.ExperienceRow, error)
}

// sourceFor selects the backend for a table spec.
func sourceFor(spec workflow.TableSpec) (RowSource, error) {
	switch spec.Source {
	case workflow.SourceSQLite:
		return &SQLiteSource{}, nil
	case workflow.SourceParquet:
		return &ParquetSource{}, nil
	default:
		return nil, fmt.Errorf("unknown table source %q", spec.Source)
	}
}
