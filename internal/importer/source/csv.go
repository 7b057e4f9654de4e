package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// csvSource exposes a single headered CSV file as one table named after the
// file.
type csvSource struct {
	location string
	table    string
	lock     *sessionLock
}

func OpenCSV(location string) (Source, error) {
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

	table := strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
	return &csvSource{location: location, table: table, lock: lock}, nil
}

func (s *csvSource) Tables(ctx context.Context) ([]string, error) {
	return []string{s.table}, nil
}

func (s *csvSource) Columns(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	if !strings.EqualFold(table, s.table) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}

	f, err := os.Open(s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no header row", ErrNoSuchTable, table)
	}

	columns := make([]ColumnDescriptor, 0, len(header))
	for _, name := range header {
		columns = append(columns, ColumnDescriptor{
			Name:         strings.TrimSpace(name),
			DeclaredType: "TEXT",
			Nullable:     true,
		})
	}
	return columns, nil
}

func (s *csvSource) EstimateRows(ctx context.Context, table string) (int64, error) {
	if _, err := s.Columns(ctx, table); err != nil {
		return 0, err
	}
	return -1, nil
}

func (s *csvSource) Read(ctx context.Context, table string, opts ReadOptions, fn func(columns []string, rows []Row) error) error {
	if !strings.EqualFold(table, s.table) {
		return fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}

	f, err := os.Open(s.location)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%w: %s has no header row", ErrNoSuchTable, table)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

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

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		row := make(Row, len(columns))
		for i := range columns {
			if i < len(record) {
				row[i] = record[i]
			}
		}
		chunk = append(chunk, row)

		if !opts.Bulk && len(chunk) >= chunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (s *csvSource) Close() error {
	return s.lock.Release()
}
