package sequence

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/jsiltala/acta/internal/journal"
)

func sqliteTestJournal(t *testing.T) journal.Journal {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	j, err := journal.NewSQLite(db)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	return j
}
