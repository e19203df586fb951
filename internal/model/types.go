// Package model holds the domain types shared across the lookup service.
package model

import (
	"fmt"
	"time"
)

// FieldKind selects the search strategy for a query.
type FieldKind string

const (
	KindAuto       FieldKind = "auto"
	KindIdentifier FieldKind = "identifier"
	KindName       FieldKind = "name"
	KindEmail      FieldKind = "email"
	KindAddress    FieldKind = "address"
	KindFatherName FieldKind = "father_name"
)

// ParseFieldKind maps user input onto a FieldKind. An empty string is KindAuto.
func ParseFieldKind(s string) (FieldKind, error) {
	switch k := FieldKind(s); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindIdentifier, KindName, KindEmail, KindAddress, KindFatherName:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown search kind %q", ErrValidation, s)
}

// Record is one read-only row of the dataset.
type Record struct {
	Phone      string `json:"phone"`
	AltPhone   string `json:"alt_phone,omitempty"`
	Name       string `json:"name"`
	FatherName string `json:"father_name"`
	Address    string `json:"address"`
	Email      string `json:"email"`
	Region     string `json:"region"`
	OperatorID string `json:"operator_id,omitempty"`
}

// SearchQuery is a classified request, discarded once formatted.
type SearchQuery struct {
	Raw        string
	Normalized string
	Kind       FieldKind
	Caller     string
	Timestamp  time.Time
}

// SearchResult is the envelope returned to every surface.
// Found is true exactly when TotalRecords > 0.
type SearchResult struct {
	Found          bool      `json:"found"`
	Query          string    `json:"query"`
	Kind           FieldKind `json:"kind"`
	ResponseTimeMS float64   `json:"response_time_ms"`
	TotalRecords   int       `json:"total_records"`
	TotalPhones    int       `json:"total_phones"`
	Phones         []string  `json:"phones"`
	Names          []string  `json:"names"`
	FatherNames    []string  `json:"father_names"`
	Emails         []string  `json:"emails"`
	Addresses      []string  `json:"addresses"`
	Regions        []string  `json:"regions"`
}

// CallerIdentity is tracked from first interaction and never deleted.
type CallerIdentity struct {
	ID        string    `json:"id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Banned    bool      `json:"banned"`
}

// AccessMode is the process-wide search gate.
type AccessMode string

const (
	ModePublic  AccessMode = "public"
	ModePrivate AccessMode = "private"
)

// ParseAccessMode validates a mode string.
func ParseAccessMode(s string) (AccessMode, error) {
	switch m := AccessMode(s); m {
	case ModePublic, ModePrivate:
		return m, nil
	}
	return "", fmt.Errorf("%w: access mode must be public or private, got %q", ErrValidation, s)
}

// Action is what a caller asks the access gate for.
type Action string

const (
	ActionSearch    Action = "search"
	ActionInfo      Action = "info"
	ActionSetMode   Action = "set_mode"
	ActionBroadcast Action = "broadcast"
	ActionBan       Action = "ban"
	ActionLogs      Action = "logs"
	ActionStats     Action = "admin_stats"
	// ActionAdmin is any use of the administrator command surface.
	ActionAdmin Action = "admin"
)

// AdminOnly reports whether the action requires an administrator.
func (a Action) AdminOnly() bool {
	switch a {
	case ActionSetMode, ActionBroadcast, ActionBan, ActionLogs, ActionStats, ActionAdmin:
		return true
	}
	return false
}

// AuditEntry is one completed search. Entries are written once and never edited.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Caller    string    `json:"caller"`
	Kind      FieldKind `json:"kind"`
	Query     string    `json:"query"`
	Found     bool      `json:"found"`
	ElapsedMS float64   `json:"elapsed_ms"`
}

// AuditSnapshot summarises audit activity since process start.
type AuditSnapshot struct {
	TotalSearches int           `json:"total_searches"`
	UniqueCallers int           `json:"unique_callers"`
	Uptime        time.Duration `json:"-"`
	UptimeSeconds int64         `json:"uptime_seconds"`
}

// DatasetStats describes the size of the backing dataset.
type DatasetStats struct {
	ApproxRows int64  `json:"approx_rows"`
	SizeBytes  int64  `json:"size_bytes"`
	Driver     string `json:"driver"`
}

// Population counts known callers.
type Population struct {
	Total  int `json:"total"`
	Banned int `json:"banned"`
}

// BroadcastReport counts recipients actually attempted.
type BroadcastReport struct {
	ID       string `json:"id"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
	Canceled bool   `json:"canceled"`
}
