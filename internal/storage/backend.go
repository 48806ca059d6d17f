// Package storage persists evaluation records and retrieves them by
// identifier. Two interchangeable backends implement the same contract:
// a local filesystem store and a remote results service. Backends are
// selected at construction time from resolved configuration, never by
// reflection or ambient environment mutation.
package storage

import (
	"github.com/confident-ai/deepeval-go/pkg/types"
)

// Backend is the save/load contract shared by the local and remote
// stores. Save durably persists one new record and returns its
// identifier; Load retrieves a record by identifier. Both are
// synchronous blocking calls; callers own any concurrency around them.
type Backend interface {
	Save(testCases []types.TestCase, metrics []types.Metric, results map[string][]types.MetricResult) (string, error)
	Load(resultID string) (*types.EvaluationRecord, error)
}

// Importer is implemented by backends that accept an already-assembled
// record document, assigning it a fresh identifier. Both Local and
// Remote implement it.
type Importer interface {
	Import(rec *types.EvaluationRecord) (string, error)
}

// Modes accepted by New.
const (
	ModeLocal = "local"
	ModeCloud = "cloud"
)

// Settings carries the already-resolved configuration a backend needs.
// Resolution (config file, environment, flags) happens upstream; this
// layer never reads the environment except for the documented API key
// fallback in NewRemote.
type Settings struct {
	Mode    string
	Dir     string
	APIKey  string
	BaseURL string
}

// New constructs the backend selected by s.Mode.
func New(s Settings) (Backend, error) {
	switch s.Mode {
	case ModeLocal, "":
		return NewLocal(s.Dir)
	case ModeCloud:
		var opts []RemoteOption
		if s.BaseURL != "" {
			opts = append(opts, WithBaseURL(s.BaseURL))
		}
		return NewRemote(s.APIKey, opts...)
	default:
		return nil, &ConfigError{Reason: "unknown save mode " + s.Mode}
	}
}

// buildRecord assembles the persisted document from save inputs: test
// cases in input order, metric names in descriptor order, results keyed
// by metric name, and thresholds when the descriptors expose them.
func buildRecord(testCases []types.TestCase, metrics []types.Metric, results map[string][]types.MetricResult, ms int64) (*types.EvaluationRecord, error) {
	if len(testCases) == 0 {
		return nil, persistErr("build record", errNoTestCases)
	}

	names := make([]string, 0, len(metrics))
	thresholds := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		names = append(names, m.Name())
		thresholds[m.Name()] = m.Threshold()
	}
	if len(thresholds) == 0 {
		thresholds = nil
	}

	rec := &types.EvaluationRecord{
		TestCases:  testCases,
		Metrics:    names,
		Results:    results,
		Thresholds: thresholds,
		Timestamp:  ms,
	}
	if err := rec.Validate(); err != nil {
		return nil, persistErr("build record", err)
	}
	return rec, nil
}
