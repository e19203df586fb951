package query

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/format"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// maxHopFanout bounds concurrent lookups within one deep-search level.
const maxHopFanout = 8

// Lookuper is the dataset contract the dispatcher needs.
type Lookuper interface {
	Lookup(ctx context.Context, kind model.FieldKind, value string, limit int) ([]model.Record, error)
}

// Options tune dispatch.
type Options struct {
	MaxResults int
	// Depth is how many alternate-phone levels an identifier lookup follows; 1 disables following.
	Depth     int
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// Dispatcher runs classified queries with the right strategy.
type Dispatcher struct {
	ds    Lookuper
	opts  Options
	cache *expirable.LRU[string, []model.Record]
	log   zerolog.Logger
	now   func() time.Time
}

// NewDispatcher creates a dispatcher. A zero CacheSize disables caching.
func NewDispatcher(ds Lookuper, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 25
	}
	if opts.Depth <= 0 {
		opts.Depth = 1
	}
	d := &Dispatcher{ds: ds, opts: opts, log: log, now: time.Now}
	if opts.CacheSize > 0 {
		d.cache = expirable.NewLRU[string, []model.Record](opts.CacheSize, nil, opts.CacheTTL)
	}
	return d
}

// Dispatch executes q under the configured deadline and formats the result.
func (d *Dispatcher) Dispatch(ctx context.Context, q model.SearchQuery) (model.SearchResult, error) {
	start := d.now()
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	var (
		recs []model.Record
		err  error
	)
	if q.Kind == model.KindIdentifier {
		recs, err = d.identifier(ctx, q.Normalized)
	} else {
		recs, err = d.ds.Lookup(ctx, q.Kind, q.Normalized, d.opts.MaxResults)
	}
	if err != nil {
		return model.SearchResult{}, err
	}
	return format.Build(recs, q, d.now().Sub(start)), nil
}

func (d *Dispatcher) identifier(ctx context.Context, id string) ([]model.Record, error) {
	if d.cache != nil {
		if recs, ok := d.cache.Get(id); ok {
			cacheHits.Inc()
			return recs, nil
		}
		cacheMisses.Inc()
	}
	recs, err := d.deepLookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.cache.Add(id, recs)
	}
	return recs, nil
}

type rowKey struct{ phone, name, fname, address string }

// deepLookup walks alternate phones breadth-first, one level per hop, never
// revisiting a number. Rows repeated across hops are kept once.
func (d *Dispatcher) deepLookup(ctx context.Context, id string) ([]model.Record, error) {
	visited := map[string]bool{id: true}
	seenRows := map[rowKey]bool{}
	frontier := []string{id}
	var out []model.Record

	hops := 0
	for level := 0; level < d.opts.Depth && len(frontier) > 0; level++ {
		results := make([][]model.Record, len(frontier))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxHopFanout)
		for i, phone := range frontier {
			g.Go(func() error {
				recs, err := d.ds.Lookup(gctx, model.KindIdentifier, phone, d.opts.MaxResults)
				results[i] = recs
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if level > 0 {
			hops++
		}

		var next []string
		for _, recs := range results {
			for _, r := range recs {
				k := rowKey{r.Phone, r.Name, r.FatherName, r.Address}
				if seenRows[k] {
					continue
				}
				seenRows[k] = true
				out = append(out, r)

				alt, ok := NormalizeAlt(r.AltPhone)
				if !ok || visited[alt] || len(next) >= d.opts.MaxResults {
					continue
				}
				visited[alt] = true
				next = append(next, alt)
			}
		}
		frontier = next
	}

	deepHops.Observe(float64(hops))
	d.log.Debug().Str("identifier", id).Int("hops", hops).Int("records", len(out)).Msg("identifier lookup complete")
	return out, nil
}
