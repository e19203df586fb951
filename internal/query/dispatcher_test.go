package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

type fakeDataset struct {
	mu    sync.Mutex
	rows  []model.Record
	calls []string
	err   error
	block bool
}

func (f *fakeDataset) Lookup(ctx context.Context, kind model.FieldKind, value string, limit int) ([]model.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, string(kind)+":"+value)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, model.ErrTimeout
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Record
	for _, r := range f.rows {
		if kind == model.KindIdentifier && r.Phone == value {
			out = append(out, r)
		}
		if kind == model.KindName && r.Name == value {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDataset) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var chain = []model.Record{
	{Phone: "9876543210", AltPhone: "9123456780", Name: "Ravi", Address: "A!B"},
	{Phone: "9876543210", Name: "Ravi", Address: "A!B"},
	{Phone: "9123456780", AltPhone: "9988776655", Name: "Anita"},
	{Phone: "9988776655", AltPhone: "9876543210", Name: "Deep"},
	{Phone: "9988776655", AltPhone: "7000000001", Name: "Deep Two"},
	{Phone: "7000000001", Name: "Too Deep"},
}

func idQuery(id string) model.SearchQuery {
	return model.SearchQuery{Raw: id, Normalized: id, Kind: model.KindIdentifier}
}

func TestDispatch_DeepLookupFollowsAlternates(t *testing.T) {
	ds := &fakeDataset{rows: chain}
	d := NewDispatcher(ds, Options{MaxResults: 25, Depth: 3}, zerolog.Nop())

	res, err := d.Dispatch(context.Background(), idQuery("9876543210"))
	require.NoError(t, err)

	// Row two duplicates row one on (phone, name, father, address) and is dropped.
	assert.Equal(t, 4, res.TotalRecords)
	assert.Equal(t, []string{"9876543210", "9123456780", "9988776655", "7000000001"}, res.Phones)
	assert.Equal(t, []string{"Ravi", "Anita", "Deep", "Deep Two"}, res.Names)
	// Three levels, and the cycle back to the start is not requeried.
	assert.Equal(t, 3, ds.callCount())
}

func TestDispatch_DepthOneIsPlainLookup(t *testing.T) {
	ds := &fakeDataset{rows: chain}
	d := NewDispatcher(ds, Options{MaxResults: 25, Depth: 1}, zerolog.Nop())

	res, err := d.Dispatch(context.Background(), idQuery("9876543210"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalRecords)
	assert.Equal(t, 1, ds.callCount())
}

func TestDispatch_CacheServesRepeatIdentifiers(t *testing.T) {
	ds := &fakeDataset{rows: chain}
	d := NewDispatcher(ds, Options{MaxResults: 25, Depth: 1, CacheSize: 8, CacheTTL: time.Minute}, zerolog.Nop())

	first, err := d.Dispatch(context.Background(), idQuery("9123456780"))
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), idQuery("9123456780"))
	require.NoError(t, err)

	assert.Equal(t, first.Phones, second.Phones)
	assert.Equal(t, 1, ds.callCount())
}

func TestDispatch_TextSearchUsesKindAndLimit(t *testing.T) {
	ds := &fakeDataset{rows: []model.Record{{Phone: "1", Name: "Ravi"}, {Phone: "2", Name: "Ravi"}, {Phone: "3", Name: "Ravi"}}}
	d := NewDispatcher(ds, Options{MaxResults: 2, Depth: 3}, zerolog.Nop())

	res, err := d.Dispatch(context.Background(), model.SearchQuery{Raw: "Ravi", Normalized: "Ravi", Kind: model.KindName})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, []string{"name:Ravi"}, ds.calls)
}

func TestDispatch_PropagatesDatasetErrors(t *testing.T) {
	ds := &fakeDataset{err: model.ErrFatal}
	d := NewDispatcher(ds, Options{Depth: 3}, zerolog.Nop())

	_, err := d.Dispatch(context.Background(), idQuery("9876543210"))
	assert.ErrorIs(t, err, model.ErrFatal)
}

func TestDispatch_Deadline(t *testing.T) {
	ds := &fakeDataset{block: true}
	d := NewDispatcher(ds, Options{Depth: 1, Timeout: 20 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	_, err := d.Dispatch(context.Background(), idQuery("9876543210"))
	assert.ErrorIs(t, err, model.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}
