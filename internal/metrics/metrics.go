// Package metrics ships baseline scoring checks and the orchestration
// that runs them over test cases and persists the outcome.
package metrics

import (
	"fmt"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/confident-ai/deepeval-go/pkg/types"
)

// Evaluator is a metric that can score a test case itself.
type Evaluator interface {
	types.Metric
	Evaluate(tc types.TestCase) types.MetricResult
}

// ExactMatch scores 1 when actual output equals expected output after
// whitespace normalization, 0 otherwise.
type ExactMatch struct{}

func (ExactMatch) Name() string       { return "exact_match" }
func (ExactMatch) Threshold() float64 { return 1.0 }

func (m ExactMatch) Evaluate(tc types.TestCase) types.MetricResult {
	if tc.ExpectedOutput == "" {
		return types.MetricResult{Error: "no expected output to compare against"}
	}
	got := strings.Join(strings.Fields(tc.ActualOutput), " ")
	want := strings.Join(strings.Fields(tc.ExpectedOutput), " ")
	if got == want {
		return types.MetricResult{Score: 1, Success: true, Reason: "Outputs match exactly"}
	}
	return types.MetricResult{Score: 0, Success: false, Reason: "Outputs differ"}
}

// DefaultMinScore is the pass threshold NewAnswerSimilarity applies.
const DefaultMinScore = 0.7

// AnswerSimilarity scores word-level similarity between actual and
// expected output: 1 minus the Levenshtein edit distance over words,
// normalized by the longer sequence. MinScore is the pass threshold
// as given; an explicit zero accepts every score.
type AnswerSimilarity struct {
	MinScore float64
}

// NewAnswerSimilarity returns the metric with the default threshold.
func NewAnswerSimilarity() AnswerSimilarity {
	return AnswerSimilarity{MinScore: DefaultMinScore}
}

func (AnswerSimilarity) Name() string { return "answer_similarity" }

func (m AnswerSimilarity) Threshold() float64 { return m.MinScore }

func (m AnswerSimilarity) Evaluate(tc types.TestCase) types.MetricResult {
	if tc.ExpectedOutput == "" {
		return types.MetricResult{Error: "no expected output to compare against"}
	}

	score := wordSimilarity(tc.ExpectedOutput, tc.ActualOutput)
	success := score >= m.Threshold()
	reason := fmt.Sprintf("Word-level similarity %.2f against threshold %.2f", score, m.Threshold())
	return types.MetricResult{Score: score, Success: success, Reason: reason}
}

func wordSimilarity(expected, actual string) float64 {
	expectedWords := strings.Fields(expected)
	actualWords := strings.Fields(actual)
	if len(expectedWords) == 0 && len(actualWords) == 0 {
		return 1
	}

	longest := len(expectedWords)
	if len(actualWords) > longest {
		longest = len(actualWords)
	}

	// The library edits rune sequences, so each distinct word is
	// assigned one rune before measuring.
	dict := make(map[string]rune)
	distance := levenshtein.DistanceForStrings(
		wordsToRunes(expectedWords, dict),
		wordsToRunes(actualWords, dict),
		levenshtein.DefaultOptionsWithSub,
	)
	return 1 - float64(distance)/float64(longest)
}

func wordsToRunes(words []string, dict map[string]rune) []rune {
	runes := make([]rune, len(words))
	for i, w := range words {
		r, ok := dict[w]
		if !ok {
			r = rune(len(dict) + 1)
			dict[w] = r
		}
		runes[i] = r
	}
	return runes
}
