package source

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// xlsxSource treats each worksheet as a table whose header row names the
// columns. Spreadsheets carry no type metadata, so every column is declared
// TEXT and nullable.
type xlsxSource struct {
	file *excelize.File
	lock *sessionLock
}

func OpenXLSX(location string) (Source, error) {
	if _, err := os.Stat(location); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	lock, err := acquireLock(location)
	if err != nil {
		return nil, err
	}

	file, err := excelize.OpenFile(location)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return &xlsxSource{file: file, lock: lock}, nil
}

func (s *xlsxSource) Tables(ctx context.Context) ([]string, error) {
	return s.file.GetSheetList(), nil
}

func (s *xlsxSource) Columns(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	header, err := s.header(table)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnDescriptor, 0, len(header))
	for _, name := range header {
		columns = append(columns, ColumnDescriptor{
			Name:         name,
			DeclaredType: "TEXT",
			Nullable:     true,
		})
	}
	return columns, nil
}

func (s *xlsxSource) EstimateRows(ctx context.Context, table string) (int64, error) {
	// Counting would stream the whole sheet; let the pipeline default to chunked.
	if _, err := s.header(table); err != nil {
		return 0, err
	}
	return -1, nil
}

func (s *xlsxSource) Read(ctx context.Context, table string, opts ReadOptions, fn func(columns []string, rows []Row) error) error {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}

	iter, err := s.file.Rows(table)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}
	defer iter.Close()

	var columns []string
	chunk := make([]Row, 0, chunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := fn(columns, chunk); err != nil {
			return err
		}
		chunk = make([]Row, 0, chunkSize)
		return nil
	}

	first := true
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		cells, err := iter.Columns()
		if err != nil {
			return err
		}
		if first {
			first = false
			columns = cells
			continue
		}

		row := make(Row, len(columns))
		for i := range columns {
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		chunk = append(chunk, row)

		if !opts.Bulk && len(chunk) >= chunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return flush()
}

func (s *xlsxSource) header(table string) ([]string, error) {
	iter, err := s.file.Rows(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}
	defer iter.Close()

	if !iter.Next() {
		return nil, fmt.Errorf("%w: %s has no header row", ErrNoSuchTable, table)
	}
	return iter.Columns()
}

func (s *xlsxSource) Close() error {
	err := s.file.Close()
	if lerr := s.lock.Release(); err == nil {
		err = lerr
	}
	return err
}
