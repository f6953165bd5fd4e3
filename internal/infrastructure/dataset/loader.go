// Package dataset reads tabular files (CSV, XLSX, SQLite) into a
// domain.Dataset of trimmed string cells.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/logging"
)

// DefaultTable is the SQLite table read when Options.Table is empty
const DefaultTable = "observations"

// Options selects the part of a file to read
type Options struct {
	Sheet string // XLSX sheet, first sheet when empty
	Table string // SQLite table, DefaultTable when empty
}

// Load reads the dataset at path, choosing a reader by file extension
func Load(path string, opts Options) (*domain.Dataset, error) {
	var (
		ds  *domain.Dataset
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		ds, err = LoadCSV(path)
	case ".xlsx":
		ds, err = LoadXLSX(path, opts.Sheet)
	case ".db", ".sqlite", ".sqlite3":
		table := opts.Table
		if table == "" {
			table = DefaultTable
		}
		ds, err = LoadSQLite(path, table)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	logging.Debug().Str("path", path).Int("rows", ds.Len()).Int("columns", len(ds.Columns)).Msg("Dataset loaded")
	return ds, nil
}

// normalizeRows trims every cell and drops fully empty rows
func normalizeRows(header []string, records [][]string) *domain.Dataset {
	ds := &domain.Dataset{Columns: make([]string, len(header))}
	for i, h := range header {
		// strip a UTF-8 BOM left by spreadsheet exports
		ds.Columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	ds.Rows = make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(rec))
		empty := true
		for i, cell := range rec {
			row[i] = strings.TrimSpace(cell)
			if row[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}
