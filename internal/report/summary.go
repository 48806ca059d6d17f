package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// MetricSummary aggregates all rows sharing one metric name.
type MetricSummary struct {
	Metric      string  `json:"metric"`
	Outcomes    int     `json:"outcomes"`
	SuccessRate float64 `json:"success_rate"`
	MeanScore   float64 `json:"mean_score"`
	MinScore    float64 `json:"min_score"`
	MaxScore    float64 `json:"max_score"`
	Errors      int     `json:"errors"`
}

// Summary is the aggregate view over a scanned storage root.
type Summary struct {
	Rows    int             `json:"rows"`
	Metrics []MetricSummary `json:"metrics"`
}

// Summarize computes per-metric success rate and score distribution
// bounds, metrics sorted by name.
func Summarize(rows []Row) Summary {
	byMetric := make(map[string]*MetricSummary)
	sums := make(map[string]float64)
	passes := make(map[string]int)

	for _, r := range rows {
		ms, ok := byMetric[r.MetricName]
		if !ok {
			ms = &MetricSummary{Metric: r.MetricName, MinScore: r.Score, MaxScore: r.Score}
			byMetric[r.MetricName] = ms
		}
		ms.Outcomes++
		sums[r.MetricName] += r.Score
		if r.Success {
			passes[r.MetricName]++
		}
		if r.Error != "" {
			ms.Errors++
		}
		if r.Score < ms.MinScore {
			ms.MinScore = r.Score
		}
		if r.Score > ms.MaxScore {
			ms.MaxScore = r.Score
		}
	}

	out := Summary{Rows: len(rows)}
	for name, ms := range byMetric {
		ms.SuccessRate = float64(passes[name]) / float64(ms.Outcomes)
		ms.MeanScore = sums[name] / float64(ms.Outcomes)
		out.Metrics = append(out.Metrics, *ms)
	}
	sort.Slice(out.Metrics, func(i, j int) bool { return out.Metrics[i].Metric < out.Metrics[j].Metric })
	return out
}

func BuildMarkdown(s Summary) string {
	var b strings.Builder
	b.WriteString("# Evaluation Results Summary\n\n")
	b.WriteString(fmt.Sprintf("- Rows: `%d`\n", s.Rows))
	b.WriteString(fmt.Sprintf("- Metrics: `%d`\n\n", len(s.Metrics)))

	if len(s.Metrics) > 0 {
		b.WriteString("| Metric | Outcomes | Success Rate | Mean Score | Min | Max | Errors |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|\n")
		for _, m := range s.Metrics {
			b.WriteString(fmt.Sprintf("| %s | %d | %.1f%% | %.3f | %.3f | %.3f | %d |\n",
				m.Metric, m.Outcomes, m.SuccessRate*100, m.MeanScore, m.MinScore, m.MaxScore, m.Errors))
		}
	}
	return b.String()
}

func WriteMarkdown(path string, s Summary) error {
	return os.WriteFile(path, []byte(BuildMarkdown(s)), 0o644)
}

func WriteJSON(path string, s Summary) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
