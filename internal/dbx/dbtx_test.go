package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupDB returns an in-memory sqlite database holding one event with two
// registrations.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE events (id TEXT PRIMARY KEY)`,
		`CREATE TABLE registrations (id TEXT PRIMARY KEY, event_id TEXT NOT NULL)`,
		`INSERT INTO events (id) VALUES ('e1')`,
		`INSERT INTO registrations (id, event_id) VALUES ('r1', 'e1'), ('r2', 'e1')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func deleteEvent(ctx context.Context, tx DBTX) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = 'e1'`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = 'e1'`)
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := setupDB(t)

	require.NoError(t, WithTx(context.Background(), db, nil, deleteEvent))
	require.Equal(t, 0, count(t, db, "registrations"))
	require.Equal(t, 0, count(t, db, "events"))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := setupDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = 'e1'`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, count(t, db, "registrations"), "registrations must survive a failed delete")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	require.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM registrations`)
			require.NoError(t, err)
			panic("kaput")
		})
	})
	require.Equal(t, 2, count(t, db, "registrations"))
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "registrations_event_usn_key"}

	name, ok := IsUniqueViolation(fmt.Errorf("insert: %w", pgErr))
	require.True(t, ok)
	require.Equal(t, "registrations_event_usn_key", name)

	_, ok = IsUniqueViolation(&pgconn.PgError{Code: "23503"})
	require.False(t, ok)

	_, ok = IsUniqueViolation(errors.New("boom"))
	require.False(t, ok)
}
