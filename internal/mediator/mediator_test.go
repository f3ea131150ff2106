package mediator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createOrgCommand struct {
	Slug string
}

type createOrgResult struct {
	ID int64
}

type getOrgQuery struct {
	Slug string
}

func TestDispatchCommandRoutesByType(t *testing.T) {
	m := New()
	RegisterCommand(m, func(ctx context.Context, cmd createOrgCommand) (createOrgResult, AuditEvent, error) {
		return createOrgResult{ID: 42}, AuditEvent{ResourceType: "organization", ResourceID: cmd.Slug}, nil
	})

	result, ev, err := DispatchCommand[createOrgCommand, createOrgResult](t.Context(), m, createOrgCommand{Slug: "uniprot"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.ID)
	assert.Equal(t, "organization", ev.ResourceType)
	assert.Equal(t, "uniprot", ev.ResourceID)
}

func TestDispatchCommandUnregisteredTypeErrors(t *testing.T) {
	m := New()
	_, _, err := DispatchCommand[createOrgCommand, createOrgResult](t.Context(), m, createOrgCommand{})
	require.Error(t, err)
}

func TestDispatchQueryRoutesByType(t *testing.T) {
	m := New()
	RegisterQuery(m, func(ctx context.Context, q getOrgQuery) (string, error) {
		return "found:" + q.Slug, nil
	})

	result, err := DispatchQuery[getOrgQuery, string](t.Context(), m, getOrgQuery{Slug: "genbank"})
	require.NoError(t, err)
	assert.Equal(t, "found:genbank", result)
}

func TestDispatchCommandPropagatesHandlerError(t *testing.T) {
	m := New()
	wantErr := fmt.Errorf("boom")
	RegisterCommand(m, func(ctx context.Context, cmd createOrgCommand) (createOrgResult, AuditEvent, error) {
		return createOrgResult{}, AuditEvent{}, wantErr
	})

	_, _, err := DispatchCommand[createOrgCommand, createOrgResult](t.Context(), m, createOrgCommand{})
	assert.ErrorIs(t, err, wantErr)
}
