package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MomentumPull/internal/domain/models"
	domrepo "MomentumPull/internal/domain/repository"
	applogger "MomentumPull/pkg/logger"
)

const DefaultSnapshotTable = "momentum_scores"

// SnapshotSchema returns the DDL for the snapshot table.
func SnapshotSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            symbol       String,
            score        Float64,
            ts           DateTime64(6, 'UTC'),
            avg_momentum Float64,
            seq          UInt32
        ) ENGINE = MergeTree
        ORDER BY (ts, seq)`, table),
	}
}

// CHSnapshotStore implements SnapshotStore backed by ClickHouse.
type CHSnapshotStore struct {
	db            *sql.DB
	table         string
	l             *applogger.Logger
	insertTimeout time.Duration
}

type CHStoreOption func(*CHSnapshotStore)

// WithInsertTimeout bounds each Append; zero leaves only the caller's deadline.
func WithInsertTimeout(d time.Duration) CHStoreOption {
	return func(s *CHSnapshotStore) { s.insertTimeout = d }
}

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)

func NewCHSnapshotStore(db *sql.DB, table string, l *applogger.Logger, opts ...CHStoreOption) *CHSnapshotStore {
	if table == "" {
		table = DefaultSnapshotTable
	}
	if l == nil {
		l = applogger.NewNop()
	}
	s := &CHSnapshotStore{db: db, table: table, l: l}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append inserts the batch as a single multi-row statement; seq keeps the
// in-batch order stable under ORDER BY (ts, seq).
func (s *CHSnapshotStore) Append(ctx context.Context, batch []models.SnapshotRecord) error {
	if len(batch) == 0 {
		return nil
	}
	if s.insertTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.insertTimeout)
		defer cancel()
	}
	start := time.Now()

	values := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*5)
	for i, r := range batch {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, r.Symbol, r.MomentumScore, r.Timestamp.UTC(), r.AverageMomentum, uint32(i))
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, score, ts, avg_momentum, seq) VALUES %s", s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.l.Error("clickhouse append error",
			applogger.String("table", s.table),
			applogger.Int("records", len(batch)),
			applogger.Error(err),
		)
		return fmt.Errorf("insert snapshots: %w", err)
	}
	s.l.Debug("clickhouse append ok",
		applogger.String("table", s.table),
		applogger.Int("records", len(batch)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHSnapshotStore) ReadAll(ctx context.Context) ([]models.SnapshotRecord, error) {
	q := fmt.Sprintf("SELECT symbol, score, ts, avg_momentum FROM %s ORDER BY ts ASC, seq ASC", s.table)
	return s.query(ctx, q)
}

func (s *CHSnapshotStore) ReadSince(ctx context.Context, cutoff time.Time) ([]models.SnapshotRecord, error) {
	q := fmt.Sprintf("SELECT symbol, score, ts, avg_momentum FROM %s WHERE ts >= ? ORDER BY ts ASC, seq ASC", s.table)
	return s.query(ctx, q, cutoff.UTC())
}

func (s *CHSnapshotStore) query(ctx context.Context, q string, args ...interface{}) ([]models.SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse read error", applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.SnapshotRecord, 0, 1024)
	for rows.Next() {
		var r models.SnapshotRecord
		if err := rows.Scan(&r.Symbol, &r.MomentumScore, &r.Timestamp, &r.AverageMomentum); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by pkg/clickhouse.
func (s *CHSnapshotStore) Close() error { return nil }
