// Package access owns the ban list and the access mode and decides who may
// do what.
package access

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/state"
)

var denials = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "hitek",
		Subsystem: "access",
		Name:      "denials_total",
		Help:      "Authorization denials by reason.",
	},
	[]string{"reason"},
)

// Store is the persistence the gate writes through to.
type Store interface {
	TouchCaller(ctx context.Context, id string, at time.Time) error
	SetBanned(ctx context.Context, id string, banned bool, at time.Time) (bool, error)
	BannedIDs(ctx context.Context) ([]string, error)
	CallerIDs(ctx context.Context) ([]string, error)
	Population(ctx context.Context) (model.Population, error)
	Setting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Options configure a Gate. Admins and Allowed are fixed for the process lifetime.
type Options struct {
	Admins      []string
	Allowed     []string
	DefaultMode model.AccessMode
}

// Gate is the single writer of the ban list and the access mode.
type Gate struct {
	store   Store
	admins  map[string]struct{}
	allowed map[string]struct{}
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	mode   model.AccessMode
	banned map[string]struct{}
}

// NewGate loads the persisted mode and ban list. A mode that was never
// persisted starts at opts.DefaultMode.
func NewGate(ctx context.Context, store Store, opts Options, log zerolog.Logger) (*Gate, error) {
	g := &Gate{
		store:   store,
		admins:  toSet(opts.Admins),
		allowed: toSet(opts.Allowed),
		banned:  map[string]struct{}{},
		log:     log,
		now:     time.Now,
		mode:    opts.DefaultMode,
	}
	if g.mode == "" {
		g.mode = model.ModePrivate
	}

	v, ok, err := store.Setting(ctx, state.KeyAccessMode)
	if err != nil {
		return nil, fmt.Errorf("load access mode: %w", err)
	}
	if ok {
		mode, err := model.ParseAccessMode(v)
		if err != nil {
			log.Warn().Str("stored", v).Msg("ignoring invalid stored access mode")
		} else {
			g.mode = mode
		}
	}

	ids, err := store.BannedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ban list: %w", err)
	}
	for _, id := range ids {
		g.banned[id] = struct{}{}
	}

	log.Info().Str("mode", string(g.mode)).Int("banned", len(g.banned)).Int("admins", len(g.admins)).Msg("access gate ready")
	return g, nil
}

// Authorize records the caller as seen and then decides. Administrators pass
// everything; a ban always denies; admin-only actions are hidden from others;
// private mode admits only the allow-set.
func (g *Gate) Authorize(ctx context.Context, caller string, action model.Action) error {
	if err := g.store.TouchCaller(ctx, caller, g.now()); err != nil {
		g.log.Error().Err(err).Str("caller", caller).Msg("caller registry update failed")
	}

	if g.IsAdmin(caller) {
		return nil
	}

	g.mu.RLock()
	_, banned := g.banned[caller]
	mode := g.mode
	g.mu.RUnlock()

	var err error
	switch {
	case banned:
		err = model.ErrBanned
	case action.AdminOnly():
		err = model.ErrInsufficientPrivilege
	case mode == model.ModePrivate && !g.isAllowed(caller):
		err = model.ErrAccessDenied
	default:
		return nil
	}

	reason := reasonOf(err)
	denials.WithLabelValues(reason).Inc()
	g.log.Info().Str("caller", caller).Str("action", string(action)).Str("reason", reason).Msg("request denied")
	return err
}

// IsAdmin reports whether id is an administrator.
func (g *Gate) IsAdmin(id string) bool {
	_, ok := g.admins[id]
	return ok
}

func (g *Gate) isAllowed(id string) bool {
	_, ok := g.allowed[id]
	return ok
}

// Admins lists administrators sorted by id.
func (g *Gate) Admins() []string {
	out := make([]string, 0, len(g.admins))
	for id := range g.admins {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Mode returns the current access mode.
func (g *Gate) Mode() model.AccessMode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

// SetMode persists and applies a new access mode.
func (g *Gate) SetMode(ctx context.Context, mode model.AccessMode) error {
	if _, err := model.ParseAccessMode(string(mode)); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.PutSetting(ctx, state.KeyAccessMode, string(mode)); err != nil {
		return fmt.Errorf("persist access mode: %w", err)
	}
	g.mode = mode
	return nil
}

// Ban flags id as banned. changed is false if it already was.
// Administrators cannot be banned.
func (g *Gate) Ban(ctx context.Context, id string) (bool, error) {
	if g.IsAdmin(id) {
		return false, fmt.Errorf("%w: administrators cannot be banned", model.ErrConflict)
	}
	return g.setBanned(ctx, id, true)
}

// Unban clears the ban flag. changed is false if id was not banned.
func (g *Gate) Unban(ctx context.Context, id string) (bool, error) {
	return g.setBanned(ctx, id, false)
}

func (g *Gate) setBanned(ctx context.Context, id string, banned bool) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: caller id is required", model.ErrValidation)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	changed, err := g.store.SetBanned(ctx, id, banned, g.now())
	if err != nil {
		return false, fmt.Errorf("persist ban: %w", err)
	}
	if banned {
		g.banned[id] = struct{}{}
	} else {
		delete(g.banned, id)
	}
	return changed, nil
}

// BanList returns banned ids sorted.
func (g *Gate) BanList() []string {
	g.mu.RLock()
	out := make([]string, 0, len(g.banned))
	for id := range g.banned {
		out = append(out, id)
	}
	g.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Population counts the caller registry.
func (g *Gate) Population(ctx context.Context) (model.Population, error) {
	return g.store.Population(ctx)
}

// Recipients lists every known caller, banned or not.
func (g *Gate) Recipients(ctx context.Context) ([]string, error) {
	return g.store.CallerIDs(ctx)
}

func reasonOf(err error) string {
	switch err {
	case model.ErrBanned:
		return "banned"
	case model.ErrInsufficientPrivilege:
		return "insufficient_privilege"
	case model.ErrAccessDenied:
		return "private_mode"
	}
	return "unknown"
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
