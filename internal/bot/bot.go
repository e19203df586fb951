// Package bot maps chat commands onto the search and admin services. It is
// transport neutral: a relay hands it (caller, text) and delivers the replies.
package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/broadcast"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/services"
)

// AuditFileName is the attachment name used for /logs.
const AuditFileName = "search_history.log"

// Searcher is the user-facing half of the service layer.
type Searcher interface {
	CheckAccess(ctx context.Context, caller string) error
	Search(ctx context.Context, caller, raw string, kind model.FieldKind) (model.SearchResult, error)
	Stats(ctx context.Context, caller string) (services.Stats, error)
}

// Administrator is the admin half of the service layer.
type Administrator interface {
	Authorize(ctx context.Context, caller string) error
	SetMode(ctx context.Context, caller, mode string) (model.AccessMode, error)
	Mode(ctx context.Context, caller string) (model.AccessMode, error)
	Ban(ctx context.Context, caller, target string) (bool, error)
	Unban(ctx context.Context, caller, target string) (bool, error)
	BanList(ctx context.Context, caller string) ([]string, error)
	Population(ctx context.Context, caller string) (model.Population, error)
	DatasetStats(ctx context.Context, caller string) (model.DatasetStats, error)
	ExportAudit(ctx context.Context, caller string, w io.Writer) (int64, error)
	ClearAudit(ctx context.Context, caller string) error
	StartBroadcast(ctx context.Context, caller, text string, done func(model.BroadcastReport, error)) (string, error)
	CancelBroadcast(ctx context.Context, caller, id string) (int, error)
}

type handlerFunc func(ctx context.Context, caller, args string) ([]string, error)

// Handler dispatches parsed commands.
type Handler struct {
	search Searcher
	admin  Administrator
	msg    broadcast.Messenger
	log    zerolog.Logger

	user   map[string]handlerFunc
	admins map[string]handlerFunc
}

func NewHandler(search Searcher, admin Administrator, msg broadcast.Messenger, log zerolog.Logger) *Handler {
	h := &Handler{search: search, admin: admin, msg: msg, log: log}
	h.user = map[string]handlerFunc{
		"start":  h.info(welcomeText),
		"help":   h.info(helpText),
		"stats":  h.stats,
		"search": h.searchKind(model.KindAuto, "/search <mobile or name>"),
		"email":  h.searchKind(model.KindEmail, "/email <email address>"),
		"addr":   h.searchKind(model.KindAddress, "/addr <address>"),
		"fname":  h.searchKind(model.KindFatherName, "/fname <father name>"),
	}
	h.admins = map[string]handlerFunc{
		"admin":     h.adminHelp,
		"logs":      h.logs,
		"dbstats":   h.dbstats,
		"alert":     h.alert,
		"stopalert": h.stopAlert,
		"clearlog":  h.clearLog,
		"setmode":   h.setMode,
		"getmode":   h.getMode,
		"users":     h.users,
		"ban":       h.ban,
		"unban":     h.unban,
		"banlist":   h.banList,
	}
	return h
}

// Handle runs one message from caller and returns the replies to send back.
// Service errors are rendered as replies; only an empty message yields none.
func (h *Handler) Handle(ctx context.Context, caller, text string) []string {
	cmd, ok := Parse(text)
	if !ok {
		return nil
	}

	var (
		replies []string
		err     error
	)
	switch fn, isUser := h.user[cmd.Name]; {
	case cmd.Name == "":
		replies, err = h.runSearch(ctx, caller, cmd.Args, model.KindAuto)
	case isUser:
		replies, err = fn(ctx, caller, cmd.Args)
	default:
		// Admin commands are invisible to everyone else.
		fn, isAdmin := h.admins[cmd.Name]
		if !isAdmin {
			return []string{unknownCommand}
		}
		if err := h.admin.Authorize(ctx, caller); err != nil {
			h.log.Debug().Err(err).Str("caller", caller).Str("command", cmd.Name).Msg("admin command denied")
			return []string{unknownCommand}
		}
		replies, err = fn(ctx, caller, cmd.Args)
	}
	if err != nil {
		h.log.Debug().Err(err).Str("caller", caller).Str("command", cmd.Name).Msg("command failed")
		return []string{renderError(err)}
	}
	return replies
}

const unknownCommand = "❓ Unknown command. Send /help for the command list."

func (h *Handler) info(text string) handlerFunc {
	return func(ctx context.Context, caller, _ string) ([]string, error) {
		if err := h.search.CheckAccess(ctx, caller); err != nil {
			return nil, err
		}
		return []string{text}, nil
	}
}

func (h *Handler) stats(ctx context.Context, caller, _ string) ([]string, error) {
	st, err := h.search.Stats(ctx, caller)
	if err != nil {
		return nil, err
	}
	return []string{renderStats(st)}, nil
}

func (h *Handler) searchKind(kind model.FieldKind, usage string) handlerFunc {
	return func(ctx context.Context, caller, args string) ([]string, error) {
		if args == "" {
			if err := h.search.CheckAccess(ctx, caller); err != nil {
				return nil, err
			}
			return []string{usageReply(usage)}, nil
		}
		return h.runSearch(ctx, caller, args, kind)
	}
}

func (h *Handler) runSearch(ctx context.Context, caller, raw string, kind model.FieldKind) ([]string, error) {
	res, err := h.search.Search(ctx, caller, raw, kind)
	if err != nil {
		return nil, err
	}
	return []string{renderResult(res)}, nil
}

func (h *Handler) adminHelp(context.Context, string, string) ([]string, error) {
	return []string{adminText}, nil
}

func (h *Handler) logs(ctx context.Context, caller, _ string) ([]string, error) {
	var buf bytes.Buffer
	n, err := h.admin.ExportAudit(ctx, caller, &buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []string{"📄 Log file is empty."}, nil
	}
	if err := h.msg.SendDocument(ctx, caller, AuditFileName, &buf); err != nil {
		return nil, fmt.Errorf("send audit log: %w", err)
	}
	return []string{fmt.Sprintf("📋 Search history sent (%d bytes).", n)}, nil
}

func (h *Handler) dbstats(ctx context.Context, caller, _ string) ([]string, error) {
	ds, err := h.admin.DatasetStats(ctx, caller)
	if err != nil {
		return nil, err
	}
	return []string{renderDatasetStats(ds)}, nil
}

// alert starts a background broadcast; the final report is sent to the admin
// once delivery finishes.
func (h *Handler) alert(ctx context.Context, caller, args string) ([]string, error) {
	if args == "" {
		return []string{usageReply("/alert <message>")}, nil
	}
	text := "📢 ADMIN BROADCAST\n\n" + args
	id, err := h.admin.StartBroadcast(ctx, caller, text, func(rep model.BroadcastReport, err error) {
		reply := renderReport(rep)
		if err != nil {
			reply = renderError(err)
		}
		// The request context is gone by now.
		if sendErr := h.msg.Send(context.Background(), caller, reply); sendErr != nil {
			h.log.Warn().Err(sendErr).Str("admin", caller).Msg("broadcast report not delivered")
		}
	})
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("📡 Broadcast %s started. Send /stopalert %s to cancel.", id, id)}, nil
}

func (h *Handler) stopAlert(ctx context.Context, caller, args string) ([]string, error) {
	n, err := h.admin.CancelBroadcast(ctx, caller, args)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return []string{"⚠️ No running broadcast with that id."}, nil
		}
		return nil, err
	}
	if n == 0 {
		return []string{"⚠️ No broadcast is running."}, nil
	}
	return []string{fmt.Sprintf("🛑 Stopping %d broadcast(s).", n)}, nil
}

func (h *Handler) clearLog(ctx context.Context, caller, _ string) ([]string, error) {
	if err := h.admin.ClearAudit(ctx, caller); err != nil {
		return nil, err
	}
	return []string{"🗑️ Search log cleared!"}, nil
}

func (h *Handler) setMode(ctx context.Context, caller, args string) ([]string, error) {
	m, err := h.admin.SetMode(ctx, caller, args)
	if errors.Is(err, model.ErrValidation) {
		return []string{usageReply("/setmode public or /setmode private")}, nil
	}
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("Bot mode set to: %s", strings.ToUpper(string(m)))}, nil
}

func (h *Handler) getMode(ctx context.Context, caller, _ string) ([]string, error) {
	m, err := h.admin.Mode(ctx, caller)
	if err != nil {
		return nil, err
	}
	return []string{renderMode(m)}, nil
}

func (h *Handler) users(ctx context.Context, caller, _ string) ([]string, error) {
	pop, err := h.admin.Population(ctx, caller)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("👥 Tracked users: %d\n🚫 Banned: %d", pop.Total, pop.Banned)}, nil
}

func (h *Handler) ban(ctx context.Context, caller, args string) ([]string, error) {
	if args == "" {
		return []string{usageReply("/ban <user_id>")}, nil
	}
	changed, err := h.admin.Ban(ctx, caller, args)
	switch {
	case errors.Is(err, model.ErrConflict):
		return []string{"⚠️ Cannot ban an admin!"}, nil
	case err != nil:
		return nil, err
	case !changed:
		return []string{fmt.Sprintf("⚠️ User %s is already banned.", args)}, nil
	}
	return []string{fmt.Sprintf("🚫 User %s has been banned.", args)}, nil
}

func (h *Handler) unban(ctx context.Context, caller, args string) ([]string, error) {
	if args == "" {
		return []string{usageReply("/unban <user_id>")}, nil
	}
	changed, err := h.admin.Unban(ctx, caller, args)
	if err != nil {
		return nil, err
	}
	if !changed {
		return []string{fmt.Sprintf("⚠️ User %s is not banned.", args)}, nil
	}
	return []string{fmt.Sprintf("✅ User %s has been unbanned.", args)}, nil
}

func (h *Handler) banList(ctx context.Context, caller, _ string) ([]string, error) {
	ids, err := h.admin.BanList(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{"✅ No banned users."}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚫 Banned users (%d):\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, "\n  • %s", id)
	}
	return []string{b.String()}, nil
}

// NotifyAdmins tells every administrator that the service is online.
// Delivery failures are logged and otherwise ignored.
func (h *Handler) NotifyAdmins(ctx context.Context, admins []string, text string) {
	for _, id := range admins {
		if err := h.msg.Send(ctx, id, text); err != nil {
			h.log.Warn().Err(err).Str("admin", id).Msg("startup notice not delivered")
		}
	}
}

func usageReply(usage string) string { return "⚠️ Usage: " + usage }

func renderError(err error) string {
	var rl *model.RateLimitError
	switch {
	case errors.As(err, &rl):
		return fmt.Sprintf("⏳ Slow down! Try again in %.1fs.", rl.RetryAfter.Seconds())
	case errors.Is(err, model.ErrBanned):
		return "🚫 You are banned from using this bot."
	case errors.Is(err, model.ErrAccessDenied):
		return "🔒 This bot is private. Contact an admin for access."
	case errors.Is(err, model.ErrInsufficientPrivilege):
		return unknownCommand
	case errors.Is(err, model.ErrInvalidIdentifier):
		return "⚠️ Invalid mobile number. Send 10 digits starting with 6-9."
	case errors.Is(err, model.ErrInvalidQuery):
		return "⚠️ Search text requires at least 3 characters."
	case errors.Is(err, model.ErrValidation):
		return "⚠️ " + err.Error()
	case errors.Is(err, model.ErrTimeout):
		return "⌛ Search timed out. Try a more specific query."
	case errors.Is(err, model.ErrFatal):
		return "❌ Database is busy. Please try again shortly."
	}
	return "❌ Something went wrong. Please try again."
}
