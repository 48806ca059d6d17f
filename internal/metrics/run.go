package metrics

import (
	"fmt"

	"github.com/confident-ai/deepeval-go/internal/storage"
	"github.com/confident-ai/deepeval-go/pkg/types"
)

// RunResult is the outcome of one evaluation run: the per-metric
// results and the identifier they were persisted under.
type RunResult struct {
	ResultID string
	Results  map[string][]types.MetricResult
}

// Run evaluates every metric against every test case in order, saves
// the outcome through the backend, and returns it together with the
// assigned identifier. A metric failure on one case is recorded in that
// case's outcome, not returned as an error; only persistence failures
// abort the run.
func Run(testCases []types.TestCase, evaluators []Evaluator, backend storage.Backend) (*RunResult, error) {
	if len(testCases) == 0 {
		return nil, fmt.Errorf("no test cases to evaluate")
	}
	if len(evaluators) == 0 {
		return nil, fmt.Errorf("no metrics to evaluate")
	}

	results := make(map[string][]types.MetricResult, len(evaluators))
	descriptors := make([]types.Metric, 0, len(evaluators))
	for _, ev := range evaluators {
		descriptors = append(descriptors, ev)
		outcomes := make([]types.MetricResult, 0, len(testCases))
		for _, tc := range testCases {
			outcomes = append(outcomes, evaluate(ev, tc))
		}
		results[ev.Name()] = outcomes
	}

	id, err := backend.Save(testCases, descriptors, results)
	if err != nil {
		return nil, err
	}
	return &RunResult{ResultID: id, Results: results}, nil
}

// evaluate isolates a single metric invocation; a panicking metric
// yields an error outcome instead of tearing down the run.
func evaluate(ev Evaluator, tc types.TestCase) (out types.MetricResult) {
	defer func() {
		if r := recover(); r != nil {
			out = types.MetricResult{Error: fmt.Sprintf("metric %s panicked: %v", ev.Name(), r)}
		}
	}()
	return ev.Evaluate(tc)
}
