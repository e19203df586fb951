// Package services composes the gate, limiter, dispatcher and audit log into
// the operations exposed by the HTTP and command surfaces.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/query"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hitek",
			Name:      "searches_total",
			Help:      "Search requests by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hitek",
			Name:      "search_duration_seconds",
			Help:      "End-to-end latency of dispatched searches.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// SearchService runs the request pipeline:
// gate, limiter, classifier, dispatcher, audit.
type SearchService struct {
	gate     Gate
	limiter  Limiter
	dispatch Dispatcher
	audit    AuditLog
	log      zerolog.Logger
	now      func() time.Time
}

func NewSearchService(gate Gate, limiter Limiter, dispatch Dispatcher, audit AuditLog, log zerolog.Logger) *SearchService {
	return &SearchService{gate: gate, limiter: limiter, dispatch: dispatch, audit: audit, log: log, now: time.Now}
}

// Search authorizes, rate limits, classifies and dispatches raw for caller.
// Only dispatched searches are audited.
func (s *SearchService) Search(ctx context.Context, caller, raw string, kind model.FieldKind) (model.SearchResult, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionSearch); err != nil {
		searchesTotal.WithLabelValues(string(kind), "denied").Inc()
		return model.SearchResult{}, err
	}
	if d := s.limiter.TryAcquire(caller); !d.Allowed {
		searchesTotal.WithLabelValues(string(kind), "rate_limited").Inc()
		s.log.Info().Str("caller", caller).Dur("retry_after", d.RetryAfter).Msg("search rate limited")
		return model.SearchResult{}, &model.RateLimitError{RetryAfter: d.RetryAfter}
	}

	q, err := query.Classify(raw, kind, caller, s.now())
	if err != nil {
		searchesTotal.WithLabelValues(string(kind), "invalid").Inc()
		return model.SearchResult{}, err
	}

	start := s.now()
	res, err := s.dispatch.Dispatch(ctx, q)
	searchDuration.WithLabelValues(string(q.Kind)).Observe(s.now().Sub(start).Seconds())
	if err != nil {
		searchesTotal.WithLabelValues(string(q.Kind), outcome(err)).Inc()
		s.log.Error().Err(err).Str("caller", caller).Str("kind", string(q.Kind)).Msg("search failed")
		return model.SearchResult{}, err
	}

	searchesTotal.WithLabelValues(string(q.Kind), "ok").Inc()
	s.audit.Record(model.AuditEntry{
		Timestamp: q.Timestamp,
		Caller:    caller,
		Kind:      q.Kind,
		Query:     q.Normalized,
		Found:     res.Found,
		ElapsedMS: res.ResponseTimeMS,
	})
	return res, nil
}

// CheckAccess authorizes caller for informational requests.
func (s *SearchService) CheckAccess(ctx context.Context, caller string) error {
	return s.gate.Authorize(ctx, caller, model.ActionInfo)
}

// Stats is the public statistics view.
type Stats struct {
	model.AuditSnapshot
	Mode       model.AccessMode `json:"mode"`
	Population model.Population `json:"population"`
}

// Stats returns audit counters with the access mode and caller population.
func (s *SearchService) Stats(ctx context.Context, caller string) (Stats, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionInfo); err != nil {
		return Stats{}, err
	}
	pop, err := s.gate.Population(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{AuditSnapshot: s.audit.Snapshot(), Mode: s.gate.Mode(), Population: pop}, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, model.ErrTimeout):
		return "timeout"
	case errors.Is(err, model.ErrFatal):
		return "fatal"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}
