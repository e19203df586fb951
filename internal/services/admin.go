package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// AdminService exposes administrator operations. Every method authorizes the
// caller first; non-administrators get model.ErrInsufficientPrivilege.
type AdminService struct {
	gate      Gate
	audit     AuditLog
	dataset   DatasetStater
	broadcast Broadcaster
	// base outlives single requests so background broadcasts keep running.
	base context.Context
	log  zerolog.Logger
}

func NewAdminService(base context.Context, gate Gate, audit AuditLog, dataset DatasetStater, broadcast Broadcaster, log zerolog.Logger) *AdminService {
	return &AdminService{base: base, gate: gate, audit: audit, dataset: dataset, broadcast: broadcast, log: log}
}

// Authorize admits caller to the administrator surface. Denied callers are
// still recorded as seen.
func (s *AdminService) Authorize(ctx context.Context, caller string) error {
	return s.gate.Authorize(ctx, caller, model.ActionAdmin)
}

func (s *AdminService) SetMode(ctx context.Context, caller, mode string) (model.AccessMode, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionSetMode); err != nil {
		return "", err
	}
	m, err := model.ParseAccessMode(strings.ToLower(strings.TrimSpace(mode)))
	if err != nil {
		return "", err
	}
	if err := s.gate.SetMode(ctx, m); err != nil {
		return "", err
	}
	s.log.Info().Str("admin", caller).Str("mode", string(m)).Msg("access mode changed")
	return m, nil
}

func (s *AdminService) Mode(ctx context.Context, caller string) (model.AccessMode, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionStats); err != nil {
		return "", err
	}
	return s.gate.Mode(), nil
}

func (s *AdminService) Ban(ctx context.Context, caller, target string) (bool, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionBan); err != nil {
		return false, err
	}
	if err := validTarget(target); err != nil {
		return false, err
	}
	changed, err := s.gate.Ban(ctx, target)
	if err == nil && changed {
		s.log.Info().Str("admin", caller).Str("target", target).Msg("caller banned")
	}
	return changed, err
}

func (s *AdminService) Unban(ctx context.Context, caller, target string) (bool, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionBan); err != nil {
		return false, err
	}
	if err := validTarget(target); err != nil {
		return false, err
	}
	changed, err := s.gate.Unban(ctx, target)
	if err == nil && changed {
		s.log.Info().Str("admin", caller).Str("target", target).Msg("caller unbanned")
	}
	return changed, err
}

func (s *AdminService) BanList(ctx context.Context, caller string) ([]string, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionBan); err != nil {
		return nil, err
	}
	return s.gate.BanList(), nil
}

func (s *AdminService) Population(ctx context.Context, caller string) (model.Population, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionStats); err != nil {
		return model.Population{}, err
	}
	return s.gate.Population(ctx)
}

func (s *AdminService) DatasetStats(ctx context.Context, caller string) (model.DatasetStats, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionStats); err != nil {
		return model.DatasetStats{}, err
	}
	return s.dataset.Stats(ctx)
}

// ExportAudit streams the audit log to w.
func (s *AdminService) ExportAudit(ctx context.Context, caller string, w io.Writer) (int64, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionLogs); err != nil {
		return 0, err
	}
	return s.audit.Export(ctx, w)
}

// ClearAudit truncates the audit log.
func (s *AdminService) ClearAudit(ctx context.Context, caller string) error {
	if err := s.gate.Authorize(ctx, caller, model.ActionLogs); err != nil {
		return err
	}
	if err := s.audit.Clear(); err != nil {
		return err
	}
	s.log.Info().Str("admin", caller).Msg("audit log cleared by admin")
	return nil
}

// Broadcast delivers text to every known caller and waits for the report.
func (s *AdminService) Broadcast(ctx context.Context, caller, text string) (model.BroadcastReport, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionBroadcast); err != nil {
		return model.BroadcastReport{}, err
	}
	if strings.TrimSpace(text) == "" {
		return model.BroadcastReport{}, fmt.Errorf("%w: broadcast message is empty", model.ErrValidation)
	}
	return s.broadcast.Broadcast(ctx, text, caller)
}

// StartBroadcast runs a broadcast in the background and returns its id.
func (s *AdminService) StartBroadcast(ctx context.Context, caller, text string, done func(model.BroadcastReport, error)) (string, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionBroadcast); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: broadcast message is empty", model.ErrValidation)
	}
	return s.broadcast.Start(s.base, text, caller, done), nil
}

// CancelBroadcast stops one broadcast, or all when id is empty. It returns
// how many broadcasts were signalled.
func (s *AdminService) CancelBroadcast(ctx context.Context, caller, id string) (int, error) {
	if err := s.gate.Authorize(ctx, caller, model.ActionBroadcast); err != nil {
		return 0, err
	}
	if id == "" {
		return s.broadcast.CancelAll(), nil
	}
	if err := s.broadcast.Cancel(id); err != nil {
		return 0, err
	}
	return 1, nil
}

func validTarget(id string) error {
	if id == "" || strings.ContainsAny(id, " \t\r\n") {
		return fmt.Errorf("%w: invalid caller id %q", model.ErrValidation, id)
	}
	return nil
}
