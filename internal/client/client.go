// Package client is the HTTP client the bdp CLI uses to talk to the
// registry server, mirroring internal/rpc.HTTPClient's shape (base URL +
// configured *http.Client + JSON request/response helpers) but speaking
// BDP's REST `{data, meta?}`/`{error:{kind,message}}` envelope (spec.md §6)
// instead of Connect-RPC.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/regdb"
	"github.com/bdp-project/bdp/internal/resolve"
)

// Client talks to one registry server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	actor      string
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithActor sets the X-BDP-Actor header every request carries, for audit
// attribution (spec.md §4.7's RequestMeta.ActorID).
func WithActor(actor string) Option {
	return func(c *Client) { c.actor = actor }
}

// New builds a Client against baseURL (no trailing slash required).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *errorBody      `json:"error"`
}

type errorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// kindFromWire maps the wire-protocol's string kind back onto a bdperr.Kind
// so CLI callers can branch on it (e.g. retry on KindNetworkError) the same
// way they would on a local error.
func kindFromWire(kind string) bdperr.Kind {
	for k := bdperr.KindValidation; k <= bdperr.KindInternal; k++ {
		if k.String() == kind {
			return k
		}
	}
	return bdperr.KindInternal
}

// do sends method/path with an optional JSON body and decodes the envelope,
// returning the raw `data` payload on success or a *bdperr.Error on failure.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.actor != "" {
		req.Header.Set("X-BDP-Actor", c.actor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindNetworkError, err, "request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindNetworkError, err, "read response body")
	}

	var env envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "decode response envelope")
		}
	}

	if env.Error != nil {
		return nil, bdperr.New(kindFromWire(env.Error.Kind), env.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, bdperr.New(bdperr.KindInternal, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return env.Data, nil
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// Health checks whether the registry server is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/health")
	return err
}

// Stats reports the server's row-count totals from GET /stats.
func (c *Client) Stats(ctx context.Context) (regdb.Stats, error) {
	var out regdb.Stats
	raw, err := c.get(ctx, "/stats")
	if err != nil {
		return out, err
	}
	return out, unmarshal(raw, &out)
}

func unmarshal(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "decode response payload")
	}
	return nil
}

// ListOrganizations fetches every registered organization.
func (c *Client) ListOrganizations(ctx context.Context) ([]regdb.Organization, error) {
	var out []regdb.Organization
	raw, err := c.get(ctx, "/api/v1/organizations")
	if err != nil {
		return nil, err
	}
	return out, unmarshal(raw, &out)
}

// GetOrganization fetches one organization by slug.
func (c *Client) GetOrganization(ctx context.Context, slug string) (regdb.Organization, error) {
	var out regdb.Organization
	raw, err := c.get(ctx, "/api/v1/organizations/"+slug)
	if err != nil {
		return out, err
	}
	return out, unmarshal(raw, &out)
}

// CreateOrganizationParams mirrors httpapi's createOrganizationRequest body.
type CreateOrganizationParams struct {
	Slug    string  `json:"slug"`
	Name    string  `json:"name"`
	Website *string `json:"website,omitempty"`
}

// CreateOrganization registers a new organization.
func (c *Client) CreateOrganization(ctx context.Context, params CreateOrganizationParams) (regdb.Organization, error) {
	var out regdb.Organization
	raw, err := c.post(ctx, "/api/v1/organizations", params)
	if err != nil {
		return out, err
	}
	return out, unmarshal(raw, &out)
}

// UpdateOrganization patches name/website on an existing organization.
func (c *Client) UpdateOrganization(ctx context.Context, slug string, params CreateOrganizationParams) (regdb.Organization, error) {
	var out regdb.Organization
	raw, err := c.patch(ctx, "/api/v1/organizations/"+slug, params)
	if err != nil {
		return out, err
	}
	return out, unmarshal(raw, &out)
}

// DeleteOrganization removes an organization by slug.
func (c *Client) DeleteOrganization(ctx context.Context, slug string) error {
	_, err := c.delete(ctx, "/api/v1/organizations/"+slug)
	return err
}

// ListEntriesParams filters the data-sources listing.
type ListEntriesParams struct {
	OrgSlug   string
	EntryType string
}

// ListEntries fetches registry entries, optionally filtered by org/type.
func (c *Client) ListEntries(ctx context.Context, params ListEntriesParams) ([]regdb.EntryWithMetadata, error) {
	q := url.Values{}
	if params.OrgSlug != "" {
		q.Set("org", params.OrgSlug)
	}
	if params.EntryType != "" {
		q.Set("type", params.EntryType)
	}
	var out []regdb.EntryWithMetadata
	raw, err := c.get(ctx, "/api/v1/data-sources?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return out, unmarshal(raw, &out)
}

// CreateEntryParams mirrors httpapi's createEntryRequest body.
type CreateEntryParams struct {
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	EntryType   regdb.EntryType   `json:"entry_type"`
	Description *string           `json:"description,omitempty"`
	SourceType  *regdb.SourceType `json:"source_type,omitempty"`
	ExternalID  *string           `json:"external_id,omitempty"`
}

// CreateEntry registers a new data source / tool / aggregate under orgSlug.
func (c *Client) CreateEntry(ctx context.Context, orgSlug string, params CreateEntryParams) (regdb.RegistryEntry, error) {
	var out regdb.RegistryEntry
	raw, err := c.post(ctx, "/api/v1/data-sources/"+orgSlug, params)
	if err != nil {
		return out, err
	}
	return out, unmarshal(raw, &out)
}

// DeleteEntry removes an entry by org/name.
func (c *Client) DeleteEntry(ctx context.Context, orgSlug, entrySlug string) error {
	_, err := c.delete(ctx, "/api/v1/data-sources/"+orgSlug+"/"+entrySlug)
	return err
}

// PublishFile mirrors httpapi's publishFileRequest body.
type PublishFile struct {
	FileFormat string `json:"file_format"`
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"size_bytes"`
	SHA256     string `json:"sha256"`
	MD5        string `json:"md5"`
	BlobKey    string `json:"blob_key"`
}

// PublishDependency mirrors httpapi's publishDependencyRequest body.
type PublishDependency struct {
	ChildEntryID        int64  `json:"child_entry_id"`
	RequiredVersionSpec string `json:"required_version_spec"`
}

// PublishVersionParams mirrors httpapi's publishVersionRequest body.
type PublishVersionParams struct {
	Major           int                 `json:"major"`
	Minor           int                 `json:"minor"`
	Patch           int                 `json:"patch"`
	ExternalVersion string              `json:"external_version"`
	ReleaseDate     *time.Time          `json:"release_date,omitempty"`
	Metadata        map[string]any      `json:"metadata,omitempty"`
	Files           []PublishFile       `json:"files"`
	Dependencies    []PublishDependency `json:"dependencies,omitempty"`
	JobID           string              `json:"job_id,omitempty"`
}

// PublishVersion records a new version of orgSlug/entrySlug.
func (c *Client) PublishVersion(ctx context.Context, orgSlug, entrySlug string, params PublishVersionParams) (any, error) {
	var out any
	raw, err := c.post(ctx, "/api/v1/data-sources/"+orgSlug+"/"+entrySlug+"/versions", params)
	if err != nil {
		return nil, err
	}
	return out, unmarshal(raw, &out)
}

// GetVersion fetches one exact version (and its files) by org/name/version.
func (c *Client) GetVersion(ctx context.Context, orgSlug, entrySlug, version string) (map[string]any, error) {
	var out map[string]any
	raw, err := c.get(ctx, "/api/v1/data-sources/"+orgSlug+"/"+entrySlug+"/versions/"+version)
	if err != nil {
		return nil, err
	}
	return out, unmarshal(raw, &out)
}

// SearchParams filters a registry search, spec.md §4.6.
type SearchParams struct {
	Text       string
	EntryType  string
	SourceType string
	Organism   string
	Page       int
	PerPage    int
}

// Search runs a free-text/faceted registry search.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]regdb.SearchHit, error) {
	q := url.Values{}
	setIfNonEmpty(q, "q", params.Text)
	setIfNonEmpty(q, "type", params.EntryType)
	setIfNonEmpty(q, "source_type", params.SourceType)
	setIfNonEmpty(q, "organism", params.Organism)
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}
	var out []regdb.SearchHit
	raw, err := c.get(ctx, "/api/v1/search?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return out, unmarshal(raw, &out)
}

// Suggest fetches prefix-match autocomplete hits.
func (c *Client) Suggest(ctx context.Context, prefix string, limit int) ([]regdb.SearchHit, error) {
	q := url.Values{}
	q.Set("q", prefix)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []regdb.SearchHit
	raw, err := c.get(ctx, "/api/v1/search/suggest?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return out, unmarshal(raw, &out)
}

func setIfNonEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// ResolveManifestEntry mirrors httpapi's resolveManifestEntry body.
type ResolveManifestEntry struct {
	Spec string `json:"spec"`
}

// ResolveRequest mirrors httpapi's resolveRequest body, the parsed `bdp.yml`
// manifest sent to the registry for lockfile resolution.
type ResolveRequest struct {
	Name    string                 `json:"name"`
	Version string                 `json:"version"`
	Sources []ResolveManifestEntry `json:"sources"`
	Tools   []ResolveManifestEntry `json:"tools"`
}

// Resolve sends a manifest to the registry and returns the resolved lockfile.
func (c *Client) Resolve(ctx context.Context, req ResolveRequest) (resolve.Lockfile, error) {
	var out resolve.Lockfile
	raw, err := c.post(ctx, "/api/v1/resolve", req)
	if err != nil {
		return out, err
	}
	return out, unmarshal(raw, &out)
}

// ListAuditParams filters the audit trail listing, spec.md §4.7.
type ListAuditParams struct {
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

// ListAudit fetches the registry's server-side audit records
// (GET /api/v1/audit). `bdp audit list` does not use it; that command reads
// the local client journal.
func (c *Client) ListAudit(ctx context.Context, params ListAuditParams) ([]regdb.AuditRecord, error) {
	q := url.Values{}
	setIfNonEmpty(q, "resource_type", params.ResourceType)
	setIfNonEmpty(q, "resource_id", params.ResourceID)
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	var out []regdb.AuditRecord
	raw, err := c.get(ctx, "/api/v1/audit?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return out, unmarshal(raw, &out)
}

// UploadFile streams a file's content to the blob store under
// org/name/version/filename, tagged with entryType ("data_source", "tool").
func (c *Client) UploadFile(ctx context.Context, entryType, orgSlug, entrySlug, version, filename string, body io.Reader, contentType string) (string, error) {
	path := fmt.Sprintf("/files/%s/%s/%s/%s?entry_type=%s", orgSlug, entrySlug, version, filename, url.QueryEscape(entryType))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", bdperr.Wrap(bdperr.KindInternal, err, "build upload request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.actor != "" {
		req.Header.Set("X-BDP-Actor", c.actor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", bdperr.Wrap(bdperr.KindNetworkError, err, "upload failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", bdperr.Wrap(bdperr.KindNetworkError, err, "read upload response")
	}
	var env envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			return "", bdperr.Wrap(bdperr.KindInternal, err, "decode upload response")
		}
	}
	if env.Error != nil {
		return "", bdperr.New(kindFromWire(env.Error.Kind), env.Error.Message)
	}

	var out struct {
		Key string `json:"key"`
	}
	return out.Key, unmarshal(env.Data, &out)
}

// PresignDownload fetches a short-lived download URL for one version file.
func (c *Client) PresignDownload(ctx context.Context, entryType, orgSlug, entrySlug, version, filename string) (string, error) {
	path := fmt.Sprintf("/files/%s/%s/%s/%s?entry_type=%s", orgSlug, entrySlug, version, filename, url.QueryEscape(entryType))
	raw, err := c.get(ctx, path)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	return out.URL, unmarshal(raw, &out)
}
