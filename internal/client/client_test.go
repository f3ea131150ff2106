package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/regdb"
)

func TestHealthReturnsNilOnOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"data":{"status":"ok"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.Health(context.Background()))
}

func TestGetOrganizationDecodesData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/organizations/uniprot", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": regdb.Organization{ID: 1, Slug: "uniprot", Name: "UniProt"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	org, err := c.GetOrganization(context.Background(), "uniprot")
	require.NoError(t, err)
	require.Equal(t, "uniprot", org.Slug)
	require.Equal(t, "UniProt", org.Name)
}

func TestErrorEnvelopeMapsToBDPErrKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"kind": "conflict", "message": "organization already exists"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateOrganization(context.Background(), CreateOrganizationParams{Slug: "uniprot", Name: "UniProt"})
	require.Error(t, err)
	require.Equal(t, bdperr.KindConflict, bdperr.KindOf(err))
}

func TestActorHeaderSentWhenConfigured(t *testing.T) {
	var gotActor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = r.Header.Get("X-BDP-Actor")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithActor("alice"))
	_, err := c.ListOrganizations(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", gotActor)
}

func TestSearchBuildsQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Search(context.Background(), SearchParams{Text: "kinase", EntryType: "data_source", Page: 2, PerPage: 10})
	require.NoError(t, err)
	require.Contains(t, gotQuery, "q=kinase")
	require.Contains(t, gotQuery, "page=2")
	require.Contains(t, gotQuery, "per_page=10")
}
