package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Dashboard file conventions: one CSV per export, timestamps formatted
// for lexical sorting.
const (
	csvPrefix   = "deepeval_results_"
	csvGlob     = csvPrefix + "*.csv"
	stampLayout = "20060102_150405"
)

var csvHeader = []string{"timestamp", "test_case_name", "metric_name", "score", "threshold", "success", "reason", "error"}

// WriteCSV writes rows to a new deepeval_results_<stamp>.csv under dir
// and returns the file path.
func WriteCSV(rows []Row, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, csvPrefix+time.Now().UTC().Format(stampLayout)+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Timestamp.Format(stampLayout),
			r.TestCaseName,
			r.MetricName,
			strconv.FormatFloat(r.Score, 'g', -1, 64),
			strconv.FormatFloat(r.Threshold, 'g', -1, 64),
			strconv.FormatBool(r.Success),
			r.Reason,
			r.Error,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush report: %w", err)
	}
	return path, nil
}

// ReadCSVDir parses every deepeval_results_*.csv under dir back into
// rows, in file order.
func ReadCSVDir(dir string) ([]Row, error) {
	files, err := filepath.Glob(filepath.Join(dir, csvGlob))
	if err != nil {
		return nil, fmt.Errorf("glob reports: %w", err)
	}
	sort.Strings(files)

	var rows []Row
	for _, file := range files {
		fileRows, err := readCSVFile(file)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func readCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("parse report %s: row %d has %d fields", path, i+1, len(rec))
		}
		ts, err := time.Parse(stampLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse report %s: row %d timestamp: %w", path, i+1, err)
		}
		score, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("parse report %s: row %d score: %w", path, i+1, err)
		}
		threshold, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("parse report %s: row %d threshold: %w", path, i+1, err)
		}
		success, err := strconv.ParseBool(rec[5])
		if err != nil {
			return nil, fmt.Errorf("parse report %s: row %d success: %w", path, i+1, err)
		}
		rows = append(rows, Row{
			Timestamp:    ts,
			TestCaseName: rec[1],
			MetricName:   rec[2],
			Score:        score,
			Threshold:    threshold,
			Success:      success,
			Reason:       rec[6],
			Error:        rec[7],
		})
	}
	return rows, nil
}
