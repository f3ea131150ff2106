// Package mediator implements the CQRS dispatch layer (spec.md §4.7): a
// single mediator maps each typed command or query to exactly one handler.
// Commands own their transaction and return a result plus a structured
// AuditEvent; queries never open a transaction and are never audited.
//
// Grounded on the teacher's internal/eventbus.Bus, adapted from "one event,
// many handlers dispatched by a type tag" to "one command, exactly one
// handler dispatched by its Go type" — CQRS has no fan-out, so the
// priority-sorted multi-handler match list collapses to a single lookup.
package mediator

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// AuditEvent is what a command handler hands back to the audit middleware
// describing what it mutated. A zero-value AuditEvent (ResourceType empty)
// still produces an audit row — omission is the caller's choice, not the
// mediator's; spec.md §4.7 audits every mutating request.
type AuditEvent struct {
	ResourceType   string
	ResourceID     string
	ResultMetadata map[string]any
}

type commandEntry func(ctx context.Context, cmd any) (result any, ev AuditEvent, err error)
type queryEntry func(ctx context.Context, q any) (result any, err error)

// Mediator holds the command/query registries. It is not itself
// audit-aware — wrap it with NewAuditingDispatcher to get the audited
// command path spec.md §4.7 describes; Mediator alone is the bare
// type-to-handler table, useful standalone in tests.
type Mediator struct {
	mu       sync.RWMutex
	commands map[reflect.Type]commandEntry
	queries  map[reflect.Type]queryEntry
}

func New() *Mediator {
	return &Mediator{
		commands: make(map[reflect.Type]commandEntry),
		queries:  make(map[reflect.Type]queryEntry),
	}
}

// RegisterCommand binds exactly one handler to command type C. Registering
// a second handler for the same C replaces the first — unlike eventbus's
// multi-handler fan-out, CQRS dispatch is single-owner by construction.
func RegisterCommand[C any, R any](m *Mediator, handler func(ctx context.Context, cmd C) (R, AuditEvent, error)) {
	t := reflect.TypeOf((*C)(nil)).Elem()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[t] = func(ctx context.Context, cmd any) (any, AuditEvent, error) {
		result, ev, err := handler(ctx, cmd.(C))
		return result, ev, err
	}
}

// RegisterQuery binds exactly one handler to query type Q. Query handlers
// never receive a transaction handle — they read off the pool.
func RegisterQuery[Q any, R any](m *Mediator, handler func(ctx context.Context, q Q) (R, error)) {
	t := reflect.TypeOf((*Q)(nil)).Elem()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries[t] = func(ctx context.Context, q any) (any, error) {
		return handler(ctx, q.(Q))
	}
}

// DispatchCommand runs the handler registered for C and returns its typed
// result alongside the AuditEvent the caller (normally an auditing
// dispatcher) persists.
func DispatchCommand[C any, R any](ctx context.Context, m *Mediator, cmd C) (R, AuditEvent, error) {
	var zero R
	t := reflect.TypeOf(cmd)
	m.mu.RLock()
	entry, ok := m.commands[t]
	m.mu.RUnlock()
	if !ok {
		return zero, AuditEvent{}, fmt.Errorf("mediator: no handler registered for command %s", t)
	}

	result, ev, err := entry(ctx, cmd)
	if err != nil {
		return zero, ev, err
	}
	typed, ok := result.(R)
	if !ok {
		return zero, ev, fmt.Errorf("mediator: handler for %s returned %T, want %T", t, result, zero)
	}
	return typed, ev, nil
}

// DispatchQuery runs the handler registered for Q. Queries are never
// audited (spec.md §4.7: "Read-only requests are not audited").
func DispatchQuery[Q any, R any](ctx context.Context, m *Mediator, q Q) (R, error) {
	var zero R
	t := reflect.TypeOf(q)
	m.mu.RLock()
	entry, ok := m.queries[t]
	m.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("mediator: no handler registered for query %s", t)
	}

	result, err := entry(ctx, q)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("mediator: handler for %s returned %T, want %T", t, result, zero)
	}
	return typed, nil
}
