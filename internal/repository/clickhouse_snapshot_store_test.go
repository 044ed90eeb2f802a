package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"MomentumPull/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCHStore_AppendSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	batch := []models.SnapshotRecord{
		{Symbol: "A", MomentumScore: 1, Timestamp: ts, AverageMomentum: 0.5},
		{Symbol: "B", MomentumScore: 0, Timestamp: ts, AverageMomentum: 0.5},
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO momentum_scores (symbol, score, ts, avg_momentum, seq) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)")).
		WithArgs("A", 1.0, ts, 0.5, uint32(0), "B", 0.0, ts, 0.5, uint32(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	s := NewCHSnapshotStore(db, "", nil)
	require.NoError(t, s.Append(context.Background(), batch))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCHStore_AppendFailureIsReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO momentum_scores").WillReturnError(errors.New("connection reset"))

	s := NewCHSnapshotStore(db, "", nil)
	err = s.Append(context.Background(), []models.SnapshotRecord{{Symbol: "A"}})
	assert.ErrorContains(t, err, "connection reset")
}

func TestCHStore_AppendHonoursInsertTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO momentum_scores").
		WillDelayFor(time.Second).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewCHSnapshotStore(db, "", nil, WithInsertTimeout(20*time.Millisecond))
	start := time.Now()
	err = s.Append(context.Background(), []models.SnapshotRecord{{Symbol: "A"}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCHStore_EmptyBatchSkipsInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewCHSnapshotStore(db, "", nil)
	require.NoError(t, s.Append(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCHStore_ReadSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	ts := cutoff.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"symbol", "score", "ts", "avg_momentum"}).
		AddRow("A", 1.5, ts, 0.2).
		AddRow("B", -1.1, ts, 0.2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT symbol, score, ts, avg_momentum FROM momentum_scores WHERE ts >= ? ORDER BY ts ASC, seq ASC")).
		WithArgs(cutoff).
		WillReturnRows(rows)

	s := NewCHSnapshotStore(db, "", nil)
	got, err := s.ReadSince(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[1].Symbol)
	assert.Equal(t, ts, got[0].Timestamp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotSchema(t *testing.T) {
	stmts := SnapshotSchema("momentum_scores")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "DateTime64(6, 'UTC')")
	assert.Contains(t, stmts[0], "ORDER BY (ts, seq)")
}
