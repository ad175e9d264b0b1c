package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/coregx/qbuild/internal/logger"
)

// AuditLevel selects which statements are audited.
type AuditLevel int

const (
	// AuditNone disables auditing.
	AuditNone AuditLevel = iota
	// AuditWrites audits INSERT, UPDATE and DELETE.
	AuditWrites
	// AuditAll audits every statement, reads included.
	AuditAll
)

// ParseAuditLevel maps "none", "writes" and "all" to a level. Unknown names
// mean AuditNone.
func ParseAuditLevel(s string) AuditLevel {
	switch s {
	case "writes":
		return AuditWrites
	case "all":
		return AuditAll
	}
	return AuditNone
}

// AuditEvent is one executed statement.
type AuditEvent struct {
	Operation string
	Table     string
	SQL       string
	Bindings  []any
	Rows      int64
	Err       error
	Duration  time.Duration
}

// Auditor writes audit events to a logger. Binding values are hashed, never logged.
type Auditor struct {
	logger logger.Logger
	level  AuditLevel
	now    func() time.Time
}

// NewAuditor returns an Auditor logging at level through l.
func NewAuditor(l logger.Logger, level AuditLevel) *Auditor {
	return &Auditor{logger: l, level: level, now: time.Now}
}

// Record logs ev when the audit level covers its operation. Successful
// statements log at info, failed ones at warn.
func (a *Auditor) Record(ctx context.Context, ev AuditEvent) {
	if !a.covers(ev.Operation) {
		return
	}

	log := a.logger.Info
	errMsg := ""
	if ev.Err != nil {
		log = a.logger.Warn
		errMsg = ev.Err.Error()
	}

	log("audit",
		"timestamp", a.now().UTC(),
		"user", User(ctx),
		"client_ip", ClientIP(ctx),
		"request_id", RequestID(ctx),
		"operation", ev.Operation,
		"table", ev.Table,
		"sql", ev.SQL,
		"params_hash", hashParams(ev.Bindings),
		"rows", ev.Rows,
		"success", ev.Err == nil,
		"error", errMsg,
		"duration_ms", ev.Duration.Milliseconds(),
	)
}

// RecordBlocked logs a statement the validator refused. Blocked statements
// are logged whenever auditing is on.
func (a *Auditor) RecordBlocked(ctx context.Context, sql string, err error) {
	if a.logger == nil || a.level == AuditNone {
		return
	}
	a.logger.Warn("query blocked",
		"user", User(ctx),
		"client_ip", ClientIP(ctx),
		"request_id", RequestID(ctx),
		"sql", sql,
		"error", err.Error(),
	)
}

func (a *Auditor) covers(operation string) bool {
	if a.logger == nil {
		return false
	}
	switch a.level {
	case AuditWrites:
		return operation == "INSERT" || operation == "UPDATE" || operation == "DELETE"
	case AuditAll:
		return true
	}
	return false
}

func hashParams(params []any) string {
	if len(params) == 0 {
		return ""
	}
	h := sha256.New()
	for _, p := range params {
		_, _ = fmt.Fprintf(h, "%v\x00", p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type contextKey string

const (
	userKey      contextKey = "qbuild:user"
	clientIPKey  contextKey = "qbuild:client_ip"
	requestIDKey contextKey = "qbuild:request_id"
)

// WithUser attaches the acting user to ctx for audit events.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// WithClientIP attaches the client address to ctx for audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// WithRequestID attaches a request ID to ctx for audit events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// User returns the user attached by WithUser.
func User(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

// ClientIP returns the address attached by WithClientIP.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// RequestID returns the ID attached by WithRequestID.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
