package journal

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// SQLite is a Journal backed by a SQLite database.
//
// It expects an *sql.DB opened with a SQLite driver. The caller is
// responsible for importing the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

// NewSQLite initializes the required schema in the given database and
// returns a new SQLite journal.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			action_id TEXT NOT NULL,
			name TEXT NOT NULL,
			result BLOB,
			error TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL DEFAULT 0,
			finished_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS journal_action_id ON journal(action_id);`,
	)
	return err
}

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	result, err := encodeValue(e.Result)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal (action_id, name, result, error, kind, attempts, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ActionID,
		e.Name,
		result,
		e.Error,
		e.Kind,
		e.Attempts,
		e.FinishedAt,
	)
	return err
}

func (s *SQLite) Get(ctx context.Context, actionID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT action_id, name, result, error, kind, attempts, finished_at
		FROM journal
		WHERE action_id = ?
		ORDER BY seq DESC
		LIMIT 1`,
		actionID,
	)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *SQLite) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `
		SELECT action_id, name, result, error, kind, attempts, finished_at
		FROM journal`
	var args []any
	var clauses []string

	if f.Name != "" {
		clauses = append(clauses, "name = ?")
		args = append(args, f.Name)
	}
	if f.FailedOnly {
		clauses = append(clauses, "error != ''")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var result []byte

	if err := row.Scan(&e.ActionID, &e.Name, &result, &e.Error, &e.Kind, &e.Attempts, &e.FinishedAt); err != nil {
		return Entry{}, err
	}

	val, err := decodeValue(result)
	if err != nil {
		return Entry{}, err
	}
	e.Result = val
	return e, nil
}
