package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "recover", "abc123", 512, "direct_parse",
			0.9, 4, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := &model.Run{
		Source:      model.RunSourceRecover,
		InputSHA256: "abc123",
		InputBytes:  512,
		Strategy:    "direct_parse",
		Confidence:  0.9,
		Questions:   4,
		Survey:      &model.Survey{Title: "T"},
	}
	err := s.CreateRun(context.Background(), run)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "source", "input_sha256", "input_bytes", "strategy",
		"confidence", "questions", "survey", "duration_ms", "created_at",
	}).AddRow("run-1", "generate", "deadbeef", 2048, "progressive_repair",
		0.6, 7, []byte(`{"title":"Recovered"}`), int64(42), created)

	mock.ExpectQuery(`FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunSourceGenerate, run.Source)
	assert.Equal(t, "progressive_repair", run.Strategy)
	assert.InDelta(t, 0.6, run.Confidence, 0.001)
	require.NotNil(t, run.Survey)
	assert.Equal(t, "Recovered", run.Survey.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "source", "input_sha256", "input_bytes", "strategy",
		"confidence", "questions", "survey", "duration_ms", "created_at",
	}).AddRow("run-1", "recover", "aa", 100, "direct_parse",
		0.9, 3, []byte(nil), int64(5), time.Now().UTC())

	mock.ExpectQuery(`AND strategy = \$1`).
		WithArgs("direct_parse", 50).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), RunFilter{Strategy: "direct_parse", Limit: 50})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Nil(t, runs[0].Survey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteRunsBefore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM runs WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	n, err := s.DeleteRunsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
