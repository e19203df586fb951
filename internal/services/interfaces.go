package services

import (
	"context"
	"io"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/ratelimit"
)

// Gate authorizes callers and owns the ban list and access mode.
type Gate interface {
	Authorize(ctx context.Context, caller string, action model.Action) error
	Mode() model.AccessMode
	SetMode(ctx context.Context, mode model.AccessMode) error
	Ban(ctx context.Context, id string) (bool, error)
	Unban(ctx context.Context, id string) (bool, error)
	BanList() []string
	Population(ctx context.Context) (model.Population, error)
}

// Limiter is the per-caller cooldown gate.
type Limiter interface {
	TryAcquire(caller string) ratelimit.Decision
}

// Dispatcher executes classified queries.
type Dispatcher interface {
	Dispatch(ctx context.Context, q model.SearchQuery) (model.SearchResult, error)
}

// AuditLog records completed searches.
type AuditLog interface {
	Record(e model.AuditEntry)
	Snapshot() model.AuditSnapshot
	Export(ctx context.Context, w io.Writer) (int64, error)
	Clear() error
}

// DatasetStater reports dataset size.
type DatasetStater interface {
	Stats(ctx context.Context) (model.DatasetStats, error)
}

// Broadcaster fans messages out to callers.
type Broadcaster interface {
	Broadcast(ctx context.Context, text, admin string) (model.BroadcastReport, error)
	Start(ctx context.Context, text, admin string, done func(model.BroadcastReport, error)) string
	Cancel(id string) error
	CancelAll() int
}
