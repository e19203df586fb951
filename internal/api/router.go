// Package api is the HTTP surface of the lookup service.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/api/recovery"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/bot"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Search     bot.Searcher
	Admin      bot.Administrator
	Commands   *bot.Handler
	Health     ServiceHealth
	RelayToken string
	Log        zerolog.Logger
}

// NewRouter builds the HTTP route table. The relay command endpoint is only
// mounted when a relay token is configured.
func NewRouter(d Deps) *mux.Router {
	root := mux.NewRouter()
	for _, mw := range accessLog(d.Log) {
		root.Use(mw)
	}
	root.Use(recovery.Middleware, metrics)

	lookup := NewLookupHandler(d.Search, d.RelayToken)
	root.HandleFunc("/api/lookup", lookup.Lookup).Methods(http.MethodGet)
	root.HandleFunc("/api/search", lookup.Search).Methods(http.MethodGet)
	root.HandleFunc("/api/stats", lookup.Stats).Methods(http.MethodGet)

	if d.RelayToken != "" && d.Commands != nil {
		cmds := NewCommandHandler(d.Commands, d.RelayToken)
		root.HandleFunc("/api/commands", cmds.Handle).Methods(http.MethodPost)
	}

	audit := NewAuditHandler(d.Admin, d.RelayToken)
	root.HandleFunc("/api/admin/audit", audit.Export).Methods(http.MethodGet)
	root.HandleFunc("/api/admin/audit", audit.Clear).Methods(http.MethodDelete)

	health := NewHealthHandler(d.Health)
	root.HandleFunc("/api/health", health.CheckHealth).Methods(http.MethodGet)
	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return root
}
