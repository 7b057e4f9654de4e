// Package source adapts external tabular data files (desktop database
// exports, spreadsheets, CSV dumps) into a uniform table/column/row view for
// the import pipeline.
package source

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the source location does not exist.
	ErrNotFound = errors.New("source_not_found")
	// ErrConnectionFailed means the source exists but could not be opened.
	ErrConnectionFailed = errors.New("source_connection_failed")
	// ErrLocked means another session holds the source lock.
	ErrLocked = errors.New("source_locked")
	// ErrNoSuchTable means the requested table is absent from the source.
	ErrNoSuchTable = errors.New("no_such_table")
)

// ColumnDescriptor describes one source column.
type ColumnDescriptor struct {
	Name         string
	DeclaredType string
	Nullable     bool
}

// Row is one source row as an ordered tuple aligned with the column list.
type Row []any

// ReadOptions selects the row-fetch strategy. Chunked is the default; bulk
// materializes the whole table in one callback and is only an optimization
// for small tables.
type ReadOptions struct {
	ChunkSize int
	Bulk      bool
}

// Source is a read-only session over one external tabular file. The session
// holds an exclusive lock on the file until Close; reads are finite and
// restartable by calling Read again.
type Source interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]ColumnDescriptor, error)
	// EstimateRows returns the table's row count, or a negative value when
	// counting is not cheap for this source type.
	EstimateRows(ctx context.Context, table string) (int64, error)
	// Read streams the table through fn in chunks (one call in bulk mode).
	// Returning an error from fn stops the read.
	Read(ctx context.Context, table string, opts ReadOptions, fn func(columns []string, rows []Row) error) error
	Close() error
}

// Open opens a source session by file extension.
func Open(location string) (Source, error) {
	switch {
	case hasExt(location, ".db", ".sqlite", ".sqlite3", ".mdb"):
		return OpenSQLite(location)
	case hasExt(location, ".xlsx", ".xlsm"):
		return OpenXLSX(location)
	case hasExt(location, ".csv"):
		return OpenCSV(location)
	default:
		return nil, fmt.Errorf("%w: unrecognized source file %q", ErrConnectionFailed, location)
	}
}

func hasExt(location string, exts ...string) bool {
	for _, ext := range exts {
		if len(location) >= len(ext) && equalFold(location[len(location)-len(ext):], ext) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
