// Package report projects stored evaluation records into tabular rows
// and renders aggregate views (CSV export, markdown and JSON
// summaries) for the dashboard and CI.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/confident-ai/deepeval-go/internal/storage"
)

// Row is one (test case, metric) outcome flattened out of a record.
type Row struct {
	Timestamp    time.Time
	TestCaseName string
	MetricName   string
	Score        float64
	Threshold    float64
	Success      bool
	Reason       string
	Error        string
}

// Scan loads every record in a local storage root and flattens it into
// rows, ordered by record identifier then metric list order then test
// case order. Records that fail to parse abort the scan; a partially
// readable root is surfaced, not papered over.
func Scan(dir string) ([]Row, error) {
	store, err := storage.NewLocal(dir)
	if err != nil {
		return nil, err
	}
	ids, err := store.List()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	var rows []Row
	for _, id := range ids {
		rec, err := store.Load(id)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", id, err)
		}
		ts := time.UnixMilli(rec.Timestamp).UTC()
		for _, metric := range rec.Metrics {
			for i, outcome := range rec.Results[metric] {
				var name string
				if i < len(rec.TestCases) {
					name = rec.TestCases[i].Name
				}
				if name == "" {
					name = fmt.Sprintf("case-%d", i)
				}
				rows = append(rows, Row{
					Timestamp:    ts,
					TestCaseName: name,
					MetricName:   metric,
					Score:        outcome.Score,
					Threshold:    rec.Thresholds[metric],
					Success:      outcome.Success,
					Reason:       outcome.Reason,
					Error:        outcome.Error,
				})
			}
		}
	}
	return rows, nil
}
