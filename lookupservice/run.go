// Package lookupservice wires the lookup service together and runs it.
package lookupservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/access"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/api"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/audit"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/bot"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/broadcast"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/config"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/factory"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/health"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/logger"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/query"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/ratelimit"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/services"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/state"
)

// Run starts the lookup service and blocks until shutdown or error.
func Run() error {
	log := logger.New("hitek-lookup")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("dataset_driver", cfg.DatasetDriver).
		Str("http_addr", cfg.GetHTTPAddr()).
		Str("access_mode", cfg.AccessMode).
		Float64("rate_limit_seconds", cfg.RateLimitSeconds).
		Int("admins", len(cfg.AdminIDs)).
		Msg("Lookup service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	svcHealth := startHealthCheckers(ctx, cfg, log, app)
	if err := health.WaitUntilHealthy(ctx, svcHealth, startupHealthTimeout(cfg.HealthIntervalSeconds)); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	router := api.NewRouter(api.Deps{
		Search:     app.search,
		Admin:      app.admin,
		Commands:   app.commands,
		Health:     svcHealth,
		RelayToken: cfg.RelayToken,
		Log:        log,
	})
	server := newHTTPServer(ctx, cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		app.commands.NotifyAdmins(gctx, app.gate.Admins(), startupNotice(gctx, app, cfg))
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown on context cancel or server error
		<-gctx.Done()
		log.Info().Msg("Shutting down server")
		if active := app.broadcaster.Active(); len(active) > 0 {
			log.Info().Strs("broadcasts", active).Msg("cancelling running broadcasts")
			app.broadcaster.CancelAll()
		}
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Stack().Err(err).Msg("Lookup service stopped with error")
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}

type application struct {
	dataset     *dataset.Accessor
	state       *state.Store
	audit       *audit.Log
	gate        *access.Gate
	limiter     *ratelimit.Limiter
	broadcaster *broadcast.Broadcaster
	search      *services.SearchService
	admin       *services.AdminService
	commands    *bot.Handler
	closers     []io.Closer
	log         zerolog.Logger
}

// build constructs every component; on failure whatever was opened is closed.
func build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (app *application, err error) {
	app = &application{log: log}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	if app.dataset, err = factory.NewDataset(cfg, log); err != nil {
		log.Error().Stack().Err(err).Msg("Dataset unavailable")
		return nil, err
	}
	app.closers = append(app.closers, app.dataset)

	if app.state, err = state.Open(cfg.StatePath); err != nil {
		log.Error().Stack().Err(err).Msg("State store unavailable")
		return nil, err
	}
	app.closers = append(app.closers, app.state)

	if app.audit, err = audit.Open(cfg.AuditLogPath, log); err != nil {
		log.Error().Stack().Err(err).Msg("Audit log unavailable")
		return nil, err
	}
	app.closers = append(app.closers, app.audit)

	mode, _ := model.ParseAccessMode(cfg.AccessMode)
	app.gate, err = access.NewGate(ctx, app.state, access.Options{
		Admins:      cfg.AdminIDs,
		Allowed:     cfg.AllowedIDs,
		DefaultMode: mode,
	}, log)
	if err != nil {
		return nil, err
	}

	app.limiter = ratelimit.New(cfg.RateLimitCooldown(), ratelimit.WithExempt(app.gate.IsAdmin))
	dispatcher := query.NewDispatcher(app.dataset, query.Options{
		MaxResults: cfg.MaxResults,
		Depth:      cfg.DeepSearchDepth,
		Timeout:    cfg.QueryTimeout,
		CacheSize:  cfg.CacheSize,
		CacheTTL:   cfg.CacheTTL,
	}, log)

	var msg broadcast.Messenger = bot.NewLogMessenger(log)
	if cfg.RelayURL != "" {
		msg = bot.NewRelayMessenger(cfg.RelayURL, cfg.RelayToken, 30*time.Second)
	} else {
		log.Warn().Msg("RELAY_URL not set; outbound messages are only logged")
	}
	app.broadcaster = broadcast.New(msg, app.gate, broadcast.Options{
		Interval:    cfg.BroadcastInterval,
		Concurrency: cfg.BroadcastConcurrency,
	}, log)

	app.search = services.NewSearchService(app.gate, app.limiter, dispatcher, app.audit, log)
	app.admin = services.NewAdminService(ctx, app.gate, app.audit, app.dataset, app.broadcaster, log)
	app.commands = bot.NewHandler(app.search, app.admin, msg, log)
	return app, nil
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, app *application) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	checkers := []health.HealthChecker{
		health.NewPingChecker("dataset", app.dataset, log, probeTimeout),
		health.NewPingChecker("state", app.state, log, probeTimeout),
		audit.NewHealthChecker(app.audit),
	}
	for _, c := range checkers {
		go c.Start(ctx, interval)
	}
	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func startupNotice(ctx context.Context, app *application, cfg *config.Config) string {
	users := 0
	if pop, err := app.gate.Population(ctx); err == nil {
		users = pop.Total
	}
	return fmt.Sprintf("⚡ HiTek lookup ONLINE ⚡\n\n"+
		"🔒 Mode  : %s\n"+
		"👥 Users : %d\n"+
		"⏱ Limit : %gs\n\n"+
		"Send /admin for command list.",
		app.gate.Mode(), users, cfg.RateLimitSeconds)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      max(15*time.Second, cfg.QueryTimeout+5*time.Second),
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// startupHealthTimeout is twice the probe interval, and at least a minute.
func startupHealthTimeout(healthIntervalSeconds int) time.Duration {
	return max(time.Duration(healthIntervalSeconds)*2*time.Second, 60*time.Second)
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
