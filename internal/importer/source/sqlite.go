package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/glebarez/go-sqlite"
)

// sqliteSource reads a SQLite database file, the interchange format used for
// desktop-database handoffs.
type sqliteSource struct {
	db   *sql.DB
	lock *sessionLock
}

func OpenSQLite(location string) (Source, error) {
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

	db, err := sql.Open("sqlite", location+"?mode=ro")
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		_ = lock.Release()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return &sqliteSource{db: db, lock: lock}, nil
}

func (s *sqliteSource) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *sqliteSource) Columns(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnDescriptor
	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, ColumnDescriptor{
			Name:         name,
			DeclaredType: typ,
			Nullable:     notNull == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}
	return columns, nil
}

func (s *sqliteSource) EstimateRows(ctx context.Context, table string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(table))).Scan(&count)
	if err != nil {
		if isNoSuchTable(err) {
			return 0, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
		}
		return 0, err
	}
	return count, nil
}

func (s *sqliteSource) Read(ctx context.Context, table string, opts ReadOptions, fn func(columns []string, rows []Row) error) error {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1000
	}

	offset := int64(0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		query := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(table))
		args := []any{}
		if !opts.Bulk {
			query += ` LIMIT ? OFFSET ?`
			args = append(args, chunkSize, offset)
		}

		columns, chunk, err := s.fetch(ctx, query, args)
		if err != nil {
			if isNoSuchTable(err) {
				return fmt.Errorf("%w: %s", ErrNoSuchTable, table)
			}
			return err
		}
		if len(chunk) > 0 {
			if err := fn(columns, chunk); err != nil {
				return err
			}
		}
		if opts.Bulk || len(chunk) < chunkSize {
			return nil
		}
		offset += int64(len(chunk))
	}
}

func (s *sqliteSource) fetch(ctx context.Context, query string, args []any) ([]string, []Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, err
		}
		out = append(out, Row(values))
	}
	return columns, out, rows.Err()
}

func (s *sqliteSource) Close() error {
	err := s.db.Close()
	if lerr := s.lock.Release(); err == nil {
		err = lerr
	}
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
