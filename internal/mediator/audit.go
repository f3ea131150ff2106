package mediator

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/bdp-project/bdp/internal/regdb"
)

// AuditSink persists one audit row. regdb.Store.InsertAuditRecord
// satisfies this directly; tests substitute a recording fake.
type AuditSink interface {
	InsertAuditRecord(ctx context.Context, rec regdb.AuditRecord) error
}

// RequestMeta carries the transport-boundary facts the audit record needs
// that a command itself doesn't know: who asked, from where, and with
// what raw body (already redacted by the caller before this point).
type RequestMeta struct {
	ActorID     string
	IP          string
	UserAgent   string
	RequestBody []byte
}

// AuditingDispatcher wraps a Mediator with the spec.md §4.7 audit
// middleware: every dispatched command gets an audit_records row, written
// over its own connection after the command's own transaction has
// committed, without holding the response on the write.
type AuditingDispatcher struct {
	Mediator *Mediator
	Sink     AuditSink
	Logger   *zap.Logger
}

func NewAuditingDispatcher(m *Mediator, sink AuditSink, logger *zap.Logger) *AuditingDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditingDispatcher{Mediator: m, Sink: sink, Logger: logger}
}

// DispatchAudited runs the command's handler, then fires the audit write
// in its own goroutine against a background context — the handler's error
// (if any) is still returned to the caller synchronously, but the audit
// write never blocks or can fail the request.
func DispatchAudited[C any, R any](ctx context.Context, d *AuditingDispatcher, meta RequestMeta, action string, cmd C) (R, error) {
	result, ev, err := DispatchCommand[C, R](ctx, d.Mediator, cmd)

	rec := regdb.AuditRecord{
		Action:       action,
		ResourceType: ev.ResourceType,
		Metadata:     ev.ResultMetadata,
	}
	if ev.ResourceID != "" {
		id := ev.ResourceID
		rec.ResourceID = &id
	}
	if meta.ActorID != "" {
		actor := meta.ActorID
		rec.UserID = &actor
	}
	if meta.IP != "" {
		ip := meta.IP
		rec.IP = &ip
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		rec.UserAgent = &ua
	}
	if err != nil {
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		rec.Metadata["error"] = err.Error()
	}
	if len(meta.RequestBody) > 0 {
		var body any
		if json.Unmarshal(meta.RequestBody, &body) == nil {
			if rec.Changes == nil {
				rec.Changes = map[string]any{}
			}
			rec.Changes["request_body"] = body
		}
	}

	go d.writeAudit(rec)

	return result, err
}

func (d *AuditingDispatcher) writeAudit(rec regdb.AuditRecord) {
	if err := d.Sink.InsertAuditRecord(context.Background(), rec); err != nil {
		d.Logger.Error("audit write failed",
			zap.String("action", rec.Action),
			zap.String("resource_type", rec.ResourceType),
			zap.Error(err))
	}
}
