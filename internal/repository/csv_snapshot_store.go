package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"MomentumPull/internal/domain/models"
	domrepo "MomentumPull/internal/domain/repository"
	applogger "MomentumPull/pkg/logger"
	"MomentumPull/pkg/util"
)

var csvHeader = []string{"Symbol", "Momentum Score", "Timestamp", "Average Momentum"}

// CSVSnapshotStore keeps the momentum time series in a single append-only CSV file.
type CSVSnapshotStore struct {
	path string
	mu   sync.RWMutex
	l    *applogger.Logger
}

var _ domrepo.SnapshotStore = (*CSVSnapshotStore)(nil)

func NewCSVSnapshotStore(path string, l *applogger.Logger) *CSVSnapshotStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CSVSnapshotStore{path: path, l: l}
}

func (s *CSVSnapshotStore) Path() string { return s.path }

// Append writes the whole batch with one write call so concurrent readers
// in other processes never observe half a batch. The header is written
// only when the file is new or empty.
func (s *CSVSnapshotStore) Append(ctx context.Context, batch []models.SnapshotRecord) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	size, err := s.trimTornTail(f)
	if err != nil {
		return err
	}
	needHeader := size == 0

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if needHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}
	for _, r := range batch {
		row := []string{
			r.Symbol,
			strconv.FormatFloat(r.MomentumScore, 'f', -1, 64),
			util.FormatTime(r.Timestamp),
			strconv.FormatFloat(r.AverageMomentum, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encode record %s: %w", r.Symbol, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	if _, err := f.WriteAt(buf.Bytes(), size); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	s.l.Debug("csv batch appended", applogger.String("path", s.path), applogger.Int("records", len(batch)))
	return nil
}

// trimTornTail cuts a trailing partial line left by an interrupted write
// so the next batch starts on a fresh line. It returns the resulting size.
func (s *CSVSnapshotStore) trimTornTail(f *os.File) (int64, error) {
	st, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", s.path, err)
	}
	size := st.Size()
	if size == 0 {
		return 0, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return 0, fmt.Errorf("read tail %s: %w", s.path, err)
	}
	if last[0] == '\n' {
		return size, nil
	}

	keep, err := lastNewlineEnd(f, size)
	if err != nil {
		return 0, fmt.Errorf("scan tail %s: %w", s.path, err)
	}
	if err := f.Truncate(keep); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", s.path, err)
	}
	s.l.Warn("csv store dropped torn trailing line",
		applogger.String("path", s.path),
		applogger.Int64("dropped_bytes", size-keep))
	return keep, nil
}

// lastNewlineEnd returns the offset just past the last '\n' before size,
// or 0 when there is none.
func lastNewlineEnd(f *os.File, size int64) (int64, error) {
	const chunk = 4096
	buf := make([]byte, chunk)
	for end := size; end > 0; {
		start := end - chunk
		if start < 0 {
			start = 0
		}
		n, err := f.ReadAt(buf[:end-start], start)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

// ReadAll returns the full series in file order. A missing file is an
// empty series.
func (s *CSVSnapshotStore) ReadAll(ctx context.Context) ([]models.SnapshotRecord, error) {
	return s.read(ctx, time.Time{})
}

// ReadSince returns records with Timestamp >= cutoff.
func (s *CSVSnapshotStore) ReadSince(ctx context.Context, cutoff time.Time) ([]models.SnapshotRecord, error) {
	return s.read(ctx, cutoff)
}

func (s *CSVSnapshotStore) read(ctx context.Context, cutoff time.Time) ([]models.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	b, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.SnapshotRecord{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	// a line without its newline is an append still in flight
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[:i+1]
	} else {
		b = nil
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = len(csvHeader)
	r.ReuseRecord = true

	out := make([]models.SnapshotRecord, 0, 1024)
	line := 0
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", s.path, err)
		}
		line++
		if line == 1 && row[0] == csvHeader[0] {
			continue
		}
		rec, err := parseCSVRow(row)
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", s.path, line, err)
		}
		if !cutoff.IsZero() && rec.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseCSVRow(row []string) (models.SnapshotRecord, error) {
	score, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return models.SnapshotRecord{}, fmt.Errorf("momentum score %q: %w", row[1], err)
	}
	ts, ok := util.ParseTime(row[2])
	if !ok {
		return models.SnapshotRecord{}, fmt.Errorf("timestamp %q: invalid", row[2])
	}
	avg, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return models.SnapshotRecord{}, fmt.Errorf("average momentum %q: %w", row[3], err)
	}
	return models.SnapshotRecord{Symbol: row[0], MomentumScore: score, Timestamp: ts, AverageMomentum: avg}, nil
}

func (s *CSVSnapshotStore) Close() error { return nil }
