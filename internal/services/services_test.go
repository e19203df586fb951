package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/access"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/audit"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/broadcast"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/query"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/ratelimit"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/state"
)

const admin = "1"

type fakeDataset struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeDataset) Lookup(_ context.Context, kind model.FieldKind, value string, _ int) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, value)
	if f.err != nil {
		return nil, f.err
	}
	if kind == model.KindIdentifier && value == "9876543210" {
		return []model.Record{
			{Phone: "9876543210", Email: "a@example.com", Name: "Ravi"},
			{Phone: "9876543210", Email: "b@example.com", Name: "Ravi", Address: "x"},
			{Phone: "9876543210", Email: "a@example.com", Name: "Ravi", Address: "y"},
		}, nil
	}
	return nil, nil
}

func (f *fakeDataset) Stats(context.Context) (model.DatasetStats, error) {
	return model.DatasetStats{ApproxRows: 1780000000, Driver: "fake"}, nil
}

func (f *fakeDataset) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type nopMessenger struct{}

func (nopMessenger) Send(context.Context, string, string) error                    { return nil }
func (nopMessenger) SendDocument(context.Context, string, string, io.Reader) error { return nil }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	search *SearchService
	admin  *AdminService
	gate   *access.Gate
	audit  *audit.Log
	ds     *fakeDataset
	clk    *clock
}

func newFixture(t *testing.T, mode model.AccessMode) *fixture {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()
	log := zerolog.Nop()

	st, err := state.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	gate, err := access.NewGate(ctx, st, access.Options{Admins: []string{admin}, DefaultMode: mode}, log)
	require.NoError(t, err)

	al, err := audit.Open(filepath.Join(dir, "search_history.log"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = al.Close() })

	clk := &clock{t: time.Unix(1700000000, 0)}
	lim := ratelimit.New(2*time.Second, ratelimit.WithClock(clk.Now), ratelimit.WithExempt(gate.IsAdmin))
	ds := &fakeDataset{}
	disp := query.NewDispatcher(ds, query.Options{MaxResults: 25, Depth: 1}, log)
	bc := broadcast.New(nopMessenger{}, gate, broadcast.Options{}, log)

	return &fixture{
		search: NewSearchService(gate, lim, disp, al, log),
		admin:  NewAdminService(ctx, gate, al, ds, bc, log),
		gate:   gate,
		audit:  al,
		ds:     ds,
		clk:    clk,
	}
}

func TestSearch_IdentifierScenario(t *testing.T) {
	f := newFixture(t, model.ModePublic)

	res, err := f.search.Search(context.Background(), "42", "+91 98765-43210", model.KindAuto)
	require.NoError(t, err)

	assert.Equal(t, []string{"9876543210"}, f.ds.calls)
	assert.Equal(t, model.KindIdentifier, res.Kind)
	assert.Equal(t, 3, res.TotalRecords)
	assert.Equal(t, []string{"9876543210"}, res.Phones)
	assert.Equal(t, 1, res.TotalPhones)
	assert.Len(t, res.Emails, 2)

	snap := f.audit.Snapshot()
	assert.Equal(t, 1, snap.TotalSearches)
	assert.Equal(t, 1, snap.UniqueCallers)
}

func TestSearch_RateLimit(t *testing.T) {
	f := newFixture(t, model.ModePublic)
	ctx := context.Background()

	_, err := f.search.Search(ctx, "42", "9876543210", model.KindAuto)
	require.NoError(t, err)

	f.clk.Advance(time.Second)
	_, err = f.search.Search(ctx, "42", "9876543210", model.KindAuto)
	var rl *model.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, time.Second, rl.RetryAfter)

	f.clk.Advance(time.Second)
	_, err = f.search.Search(ctx, "42", "9876543210", model.KindAuto)
	require.NoError(t, err)

	// Rejections are not audited.
	assert.Equal(t, 2, f.audit.Snapshot().TotalSearches)
	assert.Equal(t, 2, f.ds.lookups())
}

func TestSearch_AdminsBypassRateLimit(t *testing.T) {
	f := newFixture(t, model.ModePrivate)
	for i := 0; i < 3; i++ {
		_, err := f.search.Search(context.Background(), admin, "9876543210", model.KindAuto)
		require.NoError(t, err)
	}
}

func TestSearch_DeniedBeforeDatasetWork(t *testing.T) {
	f := newFixture(t, model.ModePrivate)
	ctx := context.Background()

	_, err := f.search.Search(ctx, "42", "9876543210", model.KindAuto)
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	_, err = f.admin.Ban(ctx, admin, "42")
	require.NoError(t, err)
	_, err = f.admin.SetMode(ctx, admin, "public")
	require.NoError(t, err)
	_, err = f.search.Search(ctx, "42", "9876543210", model.KindAuto)
	assert.ErrorIs(t, err, model.ErrBanned)

	assert.Zero(t, f.ds.lookups())
	assert.Zero(t, f.audit.Snapshot().TotalSearches)
}

func TestSearch_InvalidIdentifierNeverReachesDataset(t *testing.T) {
	f := newFixture(t, model.ModePublic)

	_, err := f.search.Search(context.Background(), "42", "12345678", model.KindAuto)
	assert.ErrorIs(t, err, model.ErrInvalidIdentifier)
	assert.Zero(t, f.ds.lookups())
	assert.Zero(t, f.audit.Snapshot().TotalSearches)
}

func TestSearch_DatasetFailurePropagates(t *testing.T) {
	f := newFixture(t, model.ModePublic)
	f.ds.err = model.ErrFatal

	_, err := f.search.Search(context.Background(), "42", "Ravi Kumar", model.KindAuto)
	assert.ErrorIs(t, err, model.ErrFatal)
	assert.Zero(t, f.audit.Snapshot().TotalSearches)
}

func TestStats(t *testing.T) {
	f := newFixture(t, model.ModePublic)
	ctx := context.Background()

	_, err := f.search.Search(ctx, "42", "9876543210", model.KindAuto)
	require.NoError(t, err)

	st, err := f.search.Stats(ctx, "43")
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalSearches)
	assert.Equal(t, model.ModePublic, st.Mode)
	assert.Equal(t, 2, st.Population.Total)
}

func TestAdmin_RequiresPrivilege(t *testing.T) {
	f := newFixture(t, model.ModePublic)
	ctx := context.Background()

	_, err := f.admin.SetMode(ctx, "42", "private")
	assert.ErrorIs(t, err, model.ErrInsufficientPrivilege)
	_, err = f.admin.Ban(ctx, "42", "43")
	assert.ErrorIs(t, err, model.ErrInsufficientPrivilege)
	_, err = f.admin.ExportAudit(ctx, "42", io.Discard)
	assert.ErrorIs(t, err, model.ErrInsufficientPrivilege)
	assert.ErrorIs(t, f.admin.ClearAudit(ctx, "42"), model.ErrInsufficientPrivilege)
	_, err = f.admin.Broadcast(ctx, "42", "hello")
	assert.ErrorIs(t, err, model.ErrInsufficientPrivilege)
	_, err = f.admin.DatasetStats(ctx, "42")
	assert.ErrorIs(t, err, model.ErrInsufficientPrivilege)
	assert.Equal(t, model.ModePublic, f.gate.Mode())
}

func TestAdmin_Operations(t *testing.T) {
	f := newFixture(t, model.ModePublic)
	ctx := context.Background()

	m, err := f.admin.SetMode(ctx, admin, " Private ")
	require.NoError(t, err)
	assert.Equal(t, model.ModePrivate, m)
	got, err := f.admin.Mode(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, model.ModePrivate, got)

	_, err = f.admin.SetMode(ctx, admin, "open")
	assert.ErrorIs(t, err, model.ErrValidation)

	changed, err := f.admin.Ban(ctx, admin, "77")
	require.NoError(t, err)
	assert.True(t, changed)
	_, err = f.admin.Ban(ctx, admin, admin)
	assert.ErrorIs(t, err, model.ErrConflict)
	_, err = f.admin.Ban(ctx, admin, "has space")
	assert.ErrorIs(t, err, model.ErrValidation)

	list, err := f.admin.BanList(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"77"}, list)

	changed, err = f.admin.Unban(ctx, admin, "77")
	require.NoError(t, err)
	assert.True(t, changed)

	pop, err := f.admin.Population(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, pop.Total)

	ds, err := f.admin.DatasetStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1780000000), ds.ApproxRows)
}

func TestAdmin_AuditExportAndClear(t *testing.T) {
	f := newFixture(t, model.ModePublic)
	ctx := context.Background()

	_, err := f.search.Search(ctx, "42", "9876543210", model.KindAuto)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := f.admin.ExportAudit(ctx, admin, &buf)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Contains(t, buf.String(), `"query":"9876543210"`)

	require.NoError(t, f.admin.ClearAudit(ctx, admin))
	buf.Reset()
	n, err = f.admin.ExportAudit(ctx, admin, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdmin_Broadcast(t *testing.T) {
	f := newFixture(t, model.ModePublic)
	ctx := context.Background()

	for _, c := range []string{"10", "11", "12"} {
		require.NoError(t, f.gate.Authorize(ctx, c, model.ActionInfo))
	}
	_, err := f.admin.Ban(ctx, admin, "12")
	require.NoError(t, err)

	rep, err := f.admin.Broadcast(ctx, admin, "service window at 02:00")
	require.NoError(t, err)
	// Banned callers and the admin still receive notices.
	assert.Equal(t, 4, rep.Sent)
	assert.Zero(t, rep.Failed)

	_, err = f.admin.Broadcast(ctx, admin, "  ")
	assert.ErrorIs(t, err, model.ErrValidation)

	done := make(chan model.BroadcastReport, 1)
	id, err := f.admin.StartBroadcast(ctx, admin, "again", func(r model.BroadcastReport, _ error) { done <- r })
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	select {
	case r := <-done:
		assert.Equal(t, id, r.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("background broadcast did not finish")
	}

	_, err = f.admin.CancelBroadcast(ctx, admin, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
	n, err := f.admin.CancelBroadcast(ctx, admin, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}
