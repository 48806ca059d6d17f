package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/confident-ai/deepeval-go/internal/storage"
	"github.com/confident-ai/deepeval-go/pkg/types"
)

type namedMetric struct {
	name      string
	threshold float64
}

func (m namedMetric) Name() string       { return m.name }
func (m namedMetric) Threshold() float64 { return m.threshold }

func seedStore(t *testing.T, dir string) {
	t.Helper()
	store, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	cases := []types.TestCase{
		{Name: "q1", Input: "Question 1", ActualOutput: "Answer 1"},
		{Name: "q2", Input: "Question 2", ActualOutput: "Answer 2"},
	}
	metrics := []types.Metric{namedMetric{name: "hallucination", threshold: 0.7}}
	results := map[string][]types.MetricResult{
		"hallucination": {
			{Score: 0.9, Success: true, Reason: "clean"},
			{Score: 0.4, Success: false, Error: "judge timeout"},
		},
	}
	if _, err := store.Save(cases, metrics, results); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)

	rows, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	first := rows[0]
	if first.TestCaseName != "q1" || first.MetricName != "hallucination" {
		t.Errorf("row = %+v", first)
	}
	if first.Score != 0.9 || !first.Success || first.Threshold != 0.7 {
		t.Errorf("row = %+v", first)
	}
	if rows[1].Error != "judge timeout" {
		t.Errorf("rows[1].Error = %q", rows[1].Error)
	}
	if first.Timestamp.IsZero() {
		t.Error("timestamp not derived from record")
	}
}

func TestScan_EmptyRoot(t *testing.T) {
	rows, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v", rows)
	}
}

func TestScan_CorruptRecord(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Scan(dir); err == nil {
		t.Fatal("expected error for corrupt record in root")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	want := []Row{
		{
			Timestamp:    time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
			TestCaseName: "q1",
			MetricName:   "answer_relevancy",
			Score:        0.85,
			Threshold:    0.7,
			Success:      true,
			Reason:       "Answer is relevant",
		},
		{
			Timestamp:    time.Date(2026, 8, 20, 10, 30, 1, 0, time.UTC),
			TestCaseName: "q2",
			MetricName:   "answer_relevancy",
			Score:        0.2,
			Threshold:    0.7,
			Success:      false,
			Error:        "empty completion",
		},
	}

	dir := t.TempDir()
	path, err := WriteCSV(want, dir)
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if base := filepath.Base(path); !strings.HasPrefix(base, "deepeval_results_") || !strings.HasSuffix(base, ".csv") {
		t.Errorf("file name = %q, want deepeval_results_*.csv", base)
	}

	got, err := ReadCSVDir(dir)
	if err != nil {
		t.Fatalf("ReadCSVDir: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d:\ngot:  %+v\nwant: %+v", i, got[i], want[i])
		}
	}
}

func TestReadCSVDir_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("not,a,report\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadCSVDir(dir)
	if err != nil {
		t.Fatalf("ReadCSVDir: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v", rows)
	}
}

func TestSummarize(t *testing.T) {
	rows := []Row{
		{MetricName: "hallucination", Score: 0.9, Success: true},
		{MetricName: "hallucination", Score: 0.5, Success: false, Error: "judge timeout"},
		{MetricName: "answer_relevancy", Score: 0.8, Success: true},
	}
	s := Summarize(rows)

	if s.Rows != 3 || len(s.Metrics) != 2 {
		t.Fatalf("summary = %+v", s)
	}
	// Sorted by metric name, so answer_relevancy first.
	ar, hall := s.Metrics[0], s.Metrics[1]
	if ar.Metric != "answer_relevancy" || ar.Outcomes != 1 || ar.SuccessRate != 1 {
		t.Errorf("answer_relevancy = %+v", ar)
	}
	if hall.Metric != "hallucination" || hall.Outcomes != 2 || hall.Errors != 1 {
		t.Errorf("hallucination = %+v", hall)
	}
	if hall.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v", hall.SuccessRate)
	}
	if math.Abs(hall.MeanScore-0.7) > 1e-9 {
		t.Errorf("MeanScore = %v", hall.MeanScore)
	}
	if hall.MinScore != 0.5 || hall.MaxScore != 0.9 {
		t.Errorf("score range = [%v, %v]", hall.MinScore, hall.MaxScore)
	}
}

func TestBuildMarkdown(t *testing.T) {
	s := Summarize([]Row{{MetricName: "hallucination", Score: 0.9, Success: true}})
	md := BuildMarkdown(s)
	for _, want := range []string{"# Evaluation Results Summary", "| hallucination |", "100.0%"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestWriteJSONAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	s := Summarize([]Row{{MetricName: "m", Score: 1, Success: true}})

	jsonPath := filepath.Join(dir, "summary.json")
	if err := WriteJSON(jsonPath, s); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"success_rate"`) {
		t.Errorf("json = %s", raw)
	}

	mdPath := filepath.Join(dir, "summary.md")
	if err := WriteMarkdown(mdPath, s); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if _, err := os.Stat(mdPath); err != nil {
		t.Fatal(err)
	}
}
