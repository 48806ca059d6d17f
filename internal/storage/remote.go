package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/confident-ai/deepeval-go/pkg/types"
)

const (
	// DefaultBaseURL is the hosted results service.
	DefaultBaseURL = "https://api.confident-ai.com"

	// APIKeyEnv is the environment fallback for the bearer credential.
	APIKeyEnv = "DEEPEVAL_API_KEY"

	resultsPath = "/v1/results"
)

// Remote stores records in a results service over HTTPS. The service
// assigns identifiers; this backend never invents one. Failures are
// surfaced as-is; retry policy belongs to the caller.
type Remote struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// RemoteOption configures a Remote store.
type RemoteOption func(*Remote)

// WithBaseURL overrides the results service base URL.
func WithBaseURL(base string) RemoteOption {
	return func(r *Remote) { r.baseURL = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient overrides the HTTP client, e.g. to set timeouts. A
// client timeout that expires mid-call surfaces as a PersistenceError.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// NewRemote constructs a remote store with the given bearer credential,
// falling back to DEEPEVAL_API_KEY. It fails with ConfigError before any
// network I/O when no credential is resolvable.
func NewRemote(apiKey string, opts ...RemoteOption) (*Remote, error) {
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv)
	}
	if apiKey == "" {
		return nil, &ConfigError{Reason: "API key required for cloud storage (set " + APIKeyEnv + ")"}
	}
	r := &Remote{apiKey: apiKey, baseURL: DefaultBaseURL, client: http.DefaultClient}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Save submits one record document and returns the identifier assigned
// by the service.
func (r *Remote) Save(testCases []types.TestCase, metrics []types.Metric, results map[string][]types.MetricResult) (string, error) {
	rec, err := buildRecord(testCases, metrics, results, nowMillis())
	if err != nil {
		return "", err
	}
	return r.Import(rec)
}

// Import submits an already-assembled record document and returns the
// identifier assigned by the service.
func (r *Remote) Import(rec *types.EvaluationRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", persistErr("import record", err)
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", persistErr("marshal record", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.baseURL+resultsPath, bytes.NewReader(body))
	if err != nil {
		return "", persistErr("build save request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", persistErr("save results", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", persistErr("read save response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", persistErr("save results", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var out struct {
		ResultID string `json:"result_id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", persistErr("parse save response", err)
	}
	if out.ResultID == "" {
		return "", persistErr("parse save response", fmt.Errorf("response has no result_id"))
	}
	return out.ResultID, nil
}

// Load retrieves the record stored under resultID. Absence statuses
// (404, 410) map to NotFoundError; any other non-2xx response is a
// PersistenceError carrying status and body.
func (r *Remote) Load(resultID string) (*types.EvaluationRecord, error) {
	req, err := http.NewRequest(http.MethodGet, r.baseURL+resultsPath+"/"+url.PathEscape(resultID), nil)
	if err != nil {
		return nil, persistErr("build load request", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, persistErr("load results", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, persistErr("read load response", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, &NotFoundError{ID: resultID}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, persistErr("load results", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var rec types.EvaluationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, persistErr("parse record "+resultID, err)
	}
	rec.ResultID = resultID
	return &rec, nil
}
