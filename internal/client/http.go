package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/groblegark/dynrec/internal/model"
)

// HTTPClient talks to the dynrec HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	actor      string
	httpClient *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request; actor is sent as X-Actor when non-empty.
func NewHTTPClient(baseURL, token, actor string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		actor:      actor,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Schema admin ---

func (c *HTTPClient) SaveField(ctx context.Context, def *model.FieldDefinition) (*model.FieldDefinition, error) {
	var saved model.FieldDefinition
	if err := c.doJSON(ctx, http.MethodPost, "/v1/schema/fields", def, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *HTTPClient) GetField(ctx context.Context, name string) (*model.FieldDefinition, error) {
	var def model.FieldDefinition
	if err := c.doJSON(ctx, http.MethodGet, "/v1/schema/fields/"+url.PathEscape(name), nil, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (c *HTTPClient) DeleteField(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/schema/fields/"+url.PathEscape(name), nil, nil)
}

func (c *HTTPClient) SaveGroup(ctx context.Context, group *model.FieldGroup) (*model.FieldGroup, error) {
	var saved model.FieldGroup
	if err := c.doJSON(ctx, http.MethodPost, "/v1/schema/groups", group, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *HTTPClient) GetGroup(ctx context.Context, idOrName string) (*model.FieldGroup, error) {
	var group model.FieldGroup
	if err := c.doJSON(ctx, http.MethodGet, "/v1/schema/groups/"+url.PathEscape(idOrName), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *HTTPClient) DeleteGroup(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/schema/groups/"+url.PathEscape(id), nil, nil)
}

// --- Schema lifecycle ---

func (c *HTTPClient) Publish(ctx context.Context, groupIdentifier string) (*model.SchemaVersion, error) {
	var version model.SchemaVersion
	path := "/v1/schema/groups/" + url.PathEscape(groupIdentifier) + "/publish"
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *HTTPClient) Deprecate(ctx context.Context, entity string) (*model.SchemaVersion, error) {
	var version model.SchemaVersion
	path := "/v1/schema/entities/" + url.PathEscape(entity) + "/deprecate"
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *HTTPClient) Rollback(ctx context.Context, entity string, version int) (*model.SchemaVersion, error) {
	var out model.SchemaVersion
	path := "/v1/schema/entities/" + url.PathEscape(entity) + "/rollback"
	if err := c.doJSON(ctx, http.MethodPost, path, RollbackRequest{Version: version}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListVersions(ctx context.Context, entity string) ([]*model.SchemaVersion, error) {
	var resp VersionsResponse
	path := "/v1/schema/entities/" + url.PathEscape(entity) + "/versions"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Versions, nil
}

func (c *HTTPClient) LatestPublished(ctx context.Context, entity string) (*model.SchemaVersion, error) {
	var version model.SchemaVersion
	path := "/v1/schema/entities/" + url.PathEscape(entity) + "/latest"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *HTTPClient) IndexPlan(ctx context.Context, entity string) (*IndexPlan, error) {
	var plan IndexPlan
	path := "/v1/schema/entities/" + url.PathEscape(entity) + "/indexes"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// --- Records ---

func (c *HTTPClient) Submit(ctx context.Context, entity string, payload map[string]any) (*model.Document, error) {
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPost, "/v1/records/"+url.PathEscape(entity), payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) Query(ctx context.Context, entity string, req QueryRequest) (*QueryResult, error) {
	var result QueryResult
	path := "/v1/records/" + url.PathEscape(entity) + "/query"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetRecord(ctx context.Context, entity, id string) (*model.Document, error) {
	var doc model.Document
	path := "/v1/records/" + url.PathEscape(entity) + "/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) PatchRecord(ctx context.Context, entity, id string, patch map[string]any) (*model.Document, error) {
	var doc model.Document
	path := "/v1/records/" + url.PathEscape(entity) + "/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPatch, path, patch, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) ReplaceRecord(ctx context.Context, entity, id string, payload map[string]any) (*model.Document, error) {
	var doc model.Document
	path := "/v1/records/" + url.PathEscape(entity) + "/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPut, path, payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) DeleteRecord(ctx context.Context, entity, id string) error {
	path := "/v1/records/" + url.PathEscape(entity) + "/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) Export(ctx context.Context, entity string) (*ExportResponse, error) {
	var resp ExportResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/export/"+url.PathEscape(entity), struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the server health status string.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the
// JSON response. If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actor != "" {
		req.Header.Set("X-Actor", c.actor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
