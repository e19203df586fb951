// Package audit keeps the append-only search history and rolling counters.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

var (
	entriesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hitek",
		Subsystem: "audit",
		Name:      "entries_total",
		Help:      "Audit entries appended.",
	})
	writeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hitek",
		Subsystem: "audit",
		Name:      "write_failures_total",
		Help:      "Audit entries that could not be persisted.",
	})
)

// Log appends one JSON line per completed search. Record never fails the
// caller; persistence problems flip the health flag instead.
type Log struct {
	path string
	log  zerolog.Logger
	now  func() time.Time

	mu      sync.Mutex
	f       *os.File
	started time.Time
	total   int
	callers map[string]struct{}

	healthy atomic.Int32
}

// Open opens (or creates) the audit file at path for appending.
func Open(path string, log zerolog.Logger) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("audit dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	l := &Log{
		path:    path,
		log:     log,
		now:     time.Now,
		f:       f,
		callers: map[string]struct{}{},
	}
	l.started = l.now()
	l.healthy.Store(1)
	return l, nil
}

// Record appends e. ID and Timestamp are filled in when empty.
func (l *Log) Record(e model.AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	e.Timestamp = e.Timestamp.UTC()

	line, err := json.Marshal(e)
	if err != nil {
		l.fail(err, e)
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	l.callers[e.Caller] = struct{}{}

	if l.f == nil {
		l.fail(os.ErrClosed, e)
		return
	}
	if _, err := l.f.Write(line); err != nil {
		l.fail(err, e)
		return
	}
	entriesWritten.Inc()
	if l.healthy.Swap(1) == 0 {
		l.log.Info().Msg("audit log writable again")
	}
}

func (l *Log) fail(err error, e model.AuditEntry) {
	writeFailures.Inc()
	l.healthy.Store(0)
	l.log.Error().Err(err).Str("caller", e.Caller).Str("kind", string(e.Kind)).Msg("audit write failed")
}

// Snapshot returns counters accumulated since the process started.
func (l *Log) Snapshot() model.AuditSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	up := l.now().Sub(l.started)
	return model.AuditSnapshot{
		TotalSearches: l.total,
		UniqueCallers: len(l.callers),
		Uptime:        up,
		UptimeSeconds: int64(up / time.Second),
	}
}

// Size returns the current length of the audit file.
func (l *Log) Size() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size()
}

func (l *Log) size() (int64, error) {
	if l.f == nil {
		return 0, os.ErrClosed
	}
	st, err := l.f.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// Export streams every entry written before the call, in write order.
// A concurrent Clear ends the stream early with io.ErrUnexpectedEOF.
func (l *Log) Export(ctx context.Context, w io.Writer) (int64, error) {
	size, err := l.Size()
	if err != nil {
		return 0, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return 0, fmt.Errorf("open audit log for export: %w", err)
	}
	defer func() { _ = f.Close() }()

	n, err := io.CopyN(w, &ctxReader{ctx: ctx, r: f}, size)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// Clear truncates the audit file. Counters are not reset.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return os.ErrClosed
	}
	if err := l.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate audit log: %w", err)
	}
	l.log.Info().Msg("audit log cleared")
	return nil
}

// Healthy reports whether the last write succeeded.
func (l *Log) Healthy() bool { return l.healthy.Load() == 1 }

// Close closes the audit file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
