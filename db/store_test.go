package db

import (
	"context"
	"database/sql/driver"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RunHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	last, err := s.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, last, "no runs recorded yet")

	first, err := s.BeginRun(ctx, []string{"database"})
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, first, true))

	id, err := s.BeginRun(ctx, []string{"database", "api"})
	require.NoError(t, err)
	assert.NotEqual(t, first, id)

	require.NoError(t, s.RecordPhase(ctx, id, PhaseRecord{
		Phase: "database", Success: true, Models: 3, Artifacts: 2, Diagnostics: 1,
		Duration: 42 * time.Millisecond,
	}))
	require.NoError(t, s.RecordPhase(ctx, id, PhaseRecord{
		Phase: "api", Success: false, Error: "write failed",
	}))
	require.NoError(t, s.FinishRun(ctx, id, false))

	last, err = s.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)

	assert.Equal(t, id, last.ID)
	assert.Equal(t, StatusFailed, last.Status)
	assert.Equal(t, []string{"database", "api"}, last.Phases)
	assert.NotNil(t, last.FinishedAt)
	require.Len(t, last.Results, 2)
	assert.Equal(t, PhaseRecord{
		Phase: "database", Success: true, Models: 3, Artifacts: 2, Diagnostics: 1,
		Duration: 42 * time.Millisecond,
	}, last.Results[0])
	assert.Equal(t, "write failed", last.Results[1].Error)
	assert.False(t, last.Results[1].Success)
}

func TestStore_Contracts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Files)
	assert.Empty(t, empty.Master)

	id, err := s.BeginRun(ctx, []string{"database"})
	require.NoError(t, err)

	c := Contracts{Files: map[string]string{"db/user.rs": "aa", "api/feed.rs": "bb"}}
	c.Master = master(c.Files)
	require.NoError(t, s.SaveContracts(ctx, id, c))

	got, err := s.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// A later save replaces the whole set
	next := Contracts{Files: map[string]string{"db/user.rs": "cc"}}
	next.Master = master(next.Files)
	require.NoError(t, s.SaveContracts(ctx, id, next))

	got, err = s.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestStore_ClosedDatabase(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.BeginRun(context.Background(), []string{"database"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseClosed))
}

func TestStore_BeginRun_Sqlmock(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s := NewStore(conn)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs (id, started_at, phases, version, status) VALUES (?, ?, ?, ?, ?)")).
		WithArgs(sqlmock.AnyArg(), fixed, "database,kv", sqlmock.AnyArg(), StatusRunning).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := s.BeginRun(context.Background(), []string{"database", "kv"})
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordPhase_Sqlmock(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s := NewStore(conn)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO phase_results")).
		WithArgs("run-1", "kv", true, 2, 2, 0, 0, int64(15), nilString{}).
		WillReturnError(errors.New("disk I/O error"))

	err = s.RecordPhase(context.Background(), "run-1", PhaseRecord{
		Phase: "kv", Success: true, Models: 2, Artifacts: 2, Duration: 15 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record phase kv")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveContracts_RollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s := NewStore(conn)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM contracts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO contracts").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err = s.SaveContracts(context.Background(), "run-1", Contracts{Files: map[string]string{"db/user.rs": "aa"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db/user.rs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// nilString matches the NULL error column of a successful phase
type nilString struct{}

func (nilString) Match(v driver.Value) bool {
	return v == nil
}
