package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	respond "github.com/Unknown-2829/Hitek-db-api-web/internal/api/respond"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/bot"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// LookupHandler serves the search endpoints.
type LookupHandler struct {
	search bot.Searcher
	token  string
}

func NewLookupHandler(search bot.Searcher, relayToken string) *LookupHandler {
	return &LookupHandler{search: search, token: relayToken}
}

// Lookup handles GET /api/lookup?number=
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if strings.TrimSpace(number) == "" {
		respond.WriteBadRequest(w, "number is required")
		return
	}
	res, err := h.search.Search(r.Context(), callerOf(r, h.token), number, model.KindIdentifier)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search?q=&kind=
func (h *LookupHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("q")) == "" {
		respond.WriteBadRequest(w, "q is required")
		return
	}
	kind, err := model.ParseFieldKind(q.Get("kind"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	res, err := h.search.Search(r.Context(), callerOf(r, h.token), q.Get("q"), kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// Stats handles GET /api/stats
func (h *LookupHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.search.Stats(r.Context(), callerOf(r, h.token))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, st)
}

// CommandHandler is the relay entry point for the chat transport.
type CommandHandler struct {
	cmds  *bot.Handler
	token string
}

func NewCommandHandler(cmds *bot.Handler, relayToken string) *CommandHandler {
	return &CommandHandler{cmds: cmds, token: relayToken}
}

type commandRequest struct {
	CallerID string `json:"caller_id"`
	Text     string `json:"text"`
}

type commandResponse struct {
	Replies []string `json:"replies"`
}

// maxCommandBody bounds relay payloads; chat messages are short.
const maxCommandBody = 64 << 10

// Handle handles POST /api/commands
func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !relayAuthorized(r, h.token) {
		respond.WriteError(w, http.StatusUnauthorized, "unauthorized", "relay token required")
		return
	}
	var req commandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respond.WriteBadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	req.CallerID = strings.TrimSpace(req.CallerID)
	if req.CallerID == "" {
		respond.WriteBadRequest(w, "caller_id is required")
		return
	}
	replies := h.cmds.Handle(r.Context(), req.CallerID, req.Text)
	if replies == nil {
		replies = []string{}
	}
	respond.WriteJSON(w, http.StatusOK, commandResponse{Replies: replies})
}

// AuditHandler exposes the audit log to administrators.
type AuditHandler struct {
	admin bot.Administrator
	token string
}

func NewAuditHandler(admin bot.Administrator, relayToken string) *AuditHandler {
	return &AuditHandler{admin: admin, token: relayToken}
}

// Export handles GET /api/admin/audit. Authorization happens before any
// byte is written, so failures still get a JSON error body.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r, h.token)
	if err := h.admin.Authorize(r.Context(), caller); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", `attachment; filename="`+bot.AuditFileName+`"`)
	if _, err := h.admin.ExportAudit(r.Context(), caller, w); err != nil {
		// Headers are gone; all that is left is to log.
		logFrom(r).Error().Err(err).Msg("audit export interrupted")
	}
}

// Clear handles DELETE /api/admin/audit
func (h *AuditHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.ClearAudit(r.Context(), callerOf(r, h.token)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
