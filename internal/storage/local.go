package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/confident-ai/deepeval-go/pkg/types"
)

// DefaultDir is the storage root used when none is configured.
const DefaultDir = ".deepeval_results"

// Local stores one JSON document per record under a root directory,
// named {result_id}.json. Concurrent saves never contend on a file
// because identifiers are unique by construction; a reader racing a
// mid-write load of the same new file is a known, accepted limitation.
type Local struct {
	dir            string
	descriptiveIDs bool
}

// LocalOption configures a Local store.
type LocalOption func(*Local)

// WithDescriptiveIDs switches the store to the legacy
// {origin}-{kind}-{subject}-{timestamp} identifier form. The default is
// the opaque {timestamp}-{uuid} form.
func WithDescriptiveIDs() LocalOption {
	return func(l *Local) { l.descriptiveIDs = true }
}

// NewLocal creates the storage root (including parents) if absent and
// returns a store over it. Creation is idempotent.
func NewLocal(dir string, opts ...LocalOption) (*Local, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, persistErr("create storage dir", err)
	}
	l := &Local{dir: dir}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Dir returns the storage root.
func (l *Local) Dir() string { return l.dir }

// Save persists one new record and returns its identifier.
func (l *Local) Save(testCases []types.TestCase, metrics []types.Metric, results map[string][]types.MetricResult) (string, error) {
	ms := nowMillis()
	rec, err := buildRecord(testCases, metrics, results, ms)
	if err != nil {
		return "", err
	}

	var id string
	if l.descriptiveIDs {
		var idCtx IDContext
		id, idCtx = DescriptiveID(ms, testCases)
		rec.TestFile = idCtx.OriginLabel
		rec.TestType = idCtx.OriginKind
		rec.TestSubject = idCtx.Subject
	} else {
		id = OpaqueID(ms)
	}

	if err := l.write(id, rec); err != nil {
		return "", err
	}
	return id, nil
}

// Import persists an already-assembled record document under a fresh
// opaque identifier. Used by the results service for ingested payloads.
func (l *Local) Import(rec *types.EvaluationRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", persistErr("import record", err)
	}
	ms := nowMillis()
	if rec.Timestamp == 0 {
		rec.Timestamp = ms
	}
	id := OpaqueID(ms)
	if err := l.write(id, rec); err != nil {
		return "", err
	}
	return id, nil
}

func (l *Local) write(id string, rec *types.EvaluationRecord) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return persistErr("marshal record", err)
	}
	path := filepath.Join(l.dir, id+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return persistErr("write record", err)
	}
	return nil
}

// Load reads the record stored under resultID. A missing file is the
// sole NotFoundError trigger; malformed JSON is a PersistenceError.
func (l *Local) Load(resultID string) (*types.EvaluationRecord, error) {
	raw, err := l.ReadDocument(resultID)
	if err != nil {
		return nil, err
	}
	var rec types.EvaluationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, persistErr("parse record "+resultID, err)
	}
	rec.ResultID = resultID
	return &rec, nil
}

// ReadDocument returns the raw stored JSON for resultID.
func (l *Local) ReadDocument(resultID string) ([]byte, error) {
	path := filepath.Join(l.dir, resultID+".json")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: resultID}
	}
	if err != nil {
		return nil, persistErr("read record "+resultID, err)
	}
	return raw, nil
}

// List returns the identifiers of every record in the storage root, in
// lexical order.
func (l *Local) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, persistErr("list records", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		ids = append(ids, base[:len(base)-len(".json")])
	}
	return ids, nil
}
