package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS entries (
	key BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID`

type sqliteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (and creates) the entries table in the database at
// path, ":memory:" keeps it in memory.
func NewSQLiteBackend(path string) (Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "open sqlite db")
	}
	// one connection, an in-memory database is private to its connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "ping sqlite db")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "create entries table")
	}
	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *sqliteBackend) Write(ctx context.Context, batch []Mutation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithMessage(err, "begin sqlite tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, mutation := range batch {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO entries (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			mutation.Key, mutation.Value,
		); err != nil {
			return errors.WithMessagef(err, "upsert %q", mutation.Key)
		}
	}
	return tx.Commit()
}

// Iterate buffers the selected rows before calling fn, the single connection
// would otherwise stay busy while fn writes.
func (s *sqliteBackend) Iterate(ctx context.Context, lower, upper []byte, fn func(key, value []byte) bool) error {
	var (
		conditions []string
		args       []any
	)
	if lower != nil {
		conditions, args = append(conditions, "key >= ?"), append(args, lower)
	}
	if upper != nil {
		conditions, args = append(conditions, "key < ?"), append(args, upper)
	}
	query := `SELECT key, value FROM entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY key", args...)
	if err != nil {
		return errors.WithMessage(err, "scan entries")
	}
	var items []kv
	for rows.Next() {
		var item kv
		if err := rows.Scan(&item.key, &item.value); err != nil {
			_ = rows.Close()
			return errors.WithMessage(err, "scan entry row")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(item.key, item.value) {
			return nil
		}
	}
	return nil
}

func (s *sqliteBackend) Close() error {
	return s.db.Close()
}
