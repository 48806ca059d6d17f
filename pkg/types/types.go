package types

import "fmt"

// TestCase is an immutable snapshot of one evaluated input/output pair.
// Fields are captured at evaluation time; the storage layer never mutates
// them after a record is written.
type TestCase struct {
	Name             string   `json:"name,omitempty"`
	Input            string   `json:"input"`
	ActualOutput     string   `json:"actual_output"`
	ExpectedOutput   string   `json:"expected_output,omitempty"`
	Context          []string `json:"context,omitempty"`
	RetrievalContext []string `json:"retrieval_context,omitempty"`
}

// MetricResult is the outcome of applying one metric to one test case.
type MetricResult struct {
	Score   float64 `json:"score"`
	Success bool    `json:"success"`
	Reason  string  `json:"reason,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Metric describes a scoring check by its stable name and pass threshold.
// The storage layer only reads the descriptor; running the metric is the
// orchestrator's concern.
type Metric interface {
	Name() string
	Threshold() float64
}

// EvaluationRecord is the unit of persistence: everything one evaluation
// run produced, keyed by ResultID once saved.
type EvaluationRecord struct {
	TestCases  []TestCase                `json:"test_cases"`
	Metrics    []string                  `json:"metrics"`
	Results    map[string][]MetricResult `json:"results"`
	Thresholds map[string]float64        `json:"thresholds,omitempty"`
	Timestamp  int64                     `json:"timestamp"`

	// Populated when the descriptive identifier strategy is in use.
	TestType    string `json:"test_type,omitempty"`
	TestFile    string `json:"test_file,omitempty"`
	TestSubject string `json:"test_subject,omitempty"`

	// Set on load from the identifier the record was stored under; not
	// part of the persisted document.
	ResultID string `json:"-"`
}

// Validate checks the structural invariants of a record: at least one test
// case, every listed metric carries results, and one outcome per test case
// per metric.
func (r *EvaluationRecord) Validate() error {
	if len(r.TestCases) == 0 {
		return fmt.Errorf("record has no test cases")
	}
	for _, name := range r.Metrics {
		outcomes, ok := r.Results[name]
		if !ok {
			return fmt.Errorf("metric %q has no results", name)
		}
		if len(outcomes) != len(r.TestCases) {
			return fmt.Errorf("metric %q has %d results for %d test cases", name, len(outcomes), len(r.TestCases))
		}
	}
	return nil
}
