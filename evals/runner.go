// Package evals provides an evaluation framework for measuring tool
// selection accuracy against the generated catalog. Suites are JSON files
// pairing natural language inputs with the operation id and arguments an
// assistant should choose; a ToolSelector (an LLM harness or a mock) is
// scored against them.
package evals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/threepointone/cloudflare-api-mcp/internal/catalog"
)

// Selection is what a selector produced for one input: the operation id
// plus the generic tool arguments (path parameters and request body).
type Selection struct {
	Tool string
	Path map[string]string
	Body map[string]any
}

// ToolSelector is implemented by an LLM harness or a mock under test.
type ToolSelector interface {
	SelectTool(input string) (Selection, error)
}

// ToolSelectionTest is a single natural-language-to-tool case.
type ToolSelectionTest struct {
	ID           string            `json:"id"`
	Category     string            `json:"category"`
	Input        string            `json:"input"`
	ExpectedTool string            `json:"expected_tool"`
	ExpectedPath map[string]string `json:"expected_path,omitempty"`
	ExpectedBody map[string]any    `json:"expected_body,omitempty"`
	NotTools     []string          `json:"not_tools,omitempty"`
}

// ToolSelectionSuite groups selection tests.
type ToolSelectionSuite struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Tests       []ToolSelectionTest `json:"tests"`
}

// ConfusionPairTest disambiguates between two commonly confused tools.
type ConfusionPairTest struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Reason   string `json:"reason"`
}

// ConfusionPair names the confusable tools and the rule that separates them.
type ConfusionPair struct {
	ID             string              `json:"id"`
	Tools          []string            `json:"tools"`
	Disambiguation string              `json:"disambiguation"`
	Tests          []ConfusionPairTest `json:"tests"`
}

// ConfusionPairSuite groups confusion pairs.
type ConfusionPairSuite struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Pairs       []ConfusionPair `json:"pairs"`
}

// ToolSelectionResult is the outcome of one selection test.
type ToolSelectionResult struct {
	TestID       string
	Input        string
	ExpectedTool string
	ActualTool   string
	Passed       bool
	Errors       []string
}

// ConfusionPairResult is the outcome of one disambiguation test.
type ConfusionPairResult struct {
	PairID       string
	TestInput    string
	ExpectedTool string
	ActualTool   string
	Reason       string
	Passed       bool
}

// EvalMetrics aggregates an evaluation run.
type EvalMetrics struct {
	TotalTests    int
	PassedTests   int
	FailedTests   int
	Accuracy      float64
	ByCategory    map[string]*CategoryMetrics
	FailedDetails []string
}

// CategoryMetrics counts results per category.
type CategoryMetrics struct {
	Total  int
	Passed int
	Failed int
}

// LoadToolSelectionSuite reads a selection suite from a JSON file.
func LoadToolSelectionSuite(path string) (*ToolSelectionSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	var suite ToolSelectionSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &suite, nil
}

// LoadConfusionPairSuite reads a confusion pair suite from a JSON file.
func LoadConfusionPairSuite(path string) (*ConfusionPairSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	var suite ConfusionPairSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &suite, nil
}

// LoadAllSuites reads the standard suite files from a directory.
func LoadAllSuites(dir string) (*ToolSelectionSuite, *ConfusionPairSuite, error) {
	selection, err := LoadToolSelectionSuite(filepath.Join(dir, "tool_selection.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading tool selection: %w", err)
	}
	confusion, err := LoadConfusionPairSuite(filepath.Join(dir, "confusion_pairs.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading confusion pairs: %w", err)
	}
	return selection, confusion, nil
}

// ValidateSuite checks a selection suite against the catalog: every expected
// tool must resolve to an operation, and every expected path argument must
// name a declared path parameter of that operation. It returns one message
// per problem found.
func ValidateSuite(suite *ToolSelectionSuite, doc *catalog.Document) []string {
	var problems []string
	for _, test := range suite.Tests {
		resolved, ok := doc.Resolve(test.ExpectedTool)
		if !ok {
			problems = append(problems,
				fmt.Sprintf("[%s] expected tool %q not in catalog", test.ID, test.ExpectedTool))
			continue
		}
		declared := make(map[string]bool)
		for _, param := range resolved.Parameters {
			if param.In == "path" {
				declared[param.Name] = true
			}
		}
		for name := range test.ExpectedPath {
			if !declared[name] {
				problems = append(problems,
					fmt.Sprintf("[%s] path argument %q is not a path parameter of %s",
						test.ID, name, test.ExpectedTool))
			}
		}
	}
	return problems
}

// ValidateConfusionPairs checks that every tool a pair references exists
// in the catalog.
func ValidateConfusionPairs(suite *ConfusionPairSuite, doc *catalog.Document) []string {
	var problems []string
	for _, pair := range suite.Pairs {
		for _, tool := range pair.Tools {
			if _, ok := doc.Resolve(tool); !ok {
				problems = append(problems,
					fmt.Sprintf("[%s] tool %q not in catalog", pair.ID, tool))
			}
		}
		for _, test := range pair.Tests {
			if _, ok := doc.Resolve(test.Expected); !ok {
				problems = append(problems,
					fmt.Sprintf("[%s] expected tool %q not in catalog", pair.ID, test.Expected))
			}
		}
	}
	return problems
}

// EvaluateToolSelection scores a selector against a selection suite.
func EvaluateToolSelection(suite *ToolSelectionSuite, selector ToolSelector) (*EvalMetrics, []ToolSelectionResult) {
	metrics := &EvalMetrics{ByCategory: make(map[string]*CategoryMetrics)}
	var results []ToolSelectionResult

	for _, test := range suite.Tests {
		metrics.TotalTests++
		if metrics.ByCategory[test.Category] == nil {
			metrics.ByCategory[test.Category] = &CategoryMetrics{}
		}
		metrics.ByCategory[test.Category].Total++

		selection, err := selector.SelectTool(test.Input)

		result := ToolSelectionResult{
			TestID:       test.ID,
			Input:        test.Input,
			ExpectedTool: test.ExpectedTool,
			ActualTool:   selection.Tool,
			Passed:       true,
		}

		if err != nil {
			result.Passed = false
			result.Errors = append(result.Errors, fmt.Sprintf("selector error: %v", err))
		}
		if selection.Tool != test.ExpectedTool {
			result.Passed = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("wrong tool: expected %s, got %s", test.ExpectedTool, selection.Tool))
		}
		for _, forbidden := range test.NotTools {
			if selection.Tool == forbidden {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("selected forbidden tool: %s", forbidden))
			}
		}
		for name, want := range test.ExpectedPath {
			got, ok := selection.Path[name]
			if !ok {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("missing path argument %s (expected %q)", name, want))
			} else if got != want {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("wrong path argument %s: expected %q, got %q", name, want, got))
			}
		}
		for key, want := range test.ExpectedBody {
			got, ok := selection.Body[key]
			if !ok {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("missing body field %s (expected %v)", key, want))
			} else if !compareValues(want, got) {
				result.Passed = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("wrong body field %s: expected %v, got %v", key, want, got))
			}
		}

		if result.Passed {
			metrics.PassedTests++
			metrics.ByCategory[test.Category].Passed++
		} else {
			metrics.FailedTests++
			metrics.ByCategory[test.Category].Failed++
			metrics.FailedDetails = append(metrics.FailedDetails,
				fmt.Sprintf("[%s] %s: %s", test.ID, test.Input, strings.Join(result.Errors, "; ")))
		}
		results = append(results, result)
	}

	if metrics.TotalTests > 0 {
		metrics.Accuracy = float64(metrics.PassedTests) / float64(metrics.TotalTests)
	}
	return metrics, results
}

// EvaluateConfusionPairs scores a selector against a confusion pair suite.
func EvaluateConfusionPairs(suite *ConfusionPairSuite, selector ToolSelector) (*EvalMetrics, []ConfusionPairResult) {
	metrics := &EvalMetrics{ByCategory: make(map[string]*CategoryMetrics)}
	var results []ConfusionPairResult

	for _, pair := range suite.Pairs {
		if metrics.ByCategory[pair.ID] == nil {
			metrics.ByCategory[pair.ID] = &CategoryMetrics{}
		}
		for _, test := range pair.Tests {
			metrics.TotalTests++
			metrics.ByCategory[pair.ID].Total++

			selection, err := selector.SelectTool(test.Input)

			result := ConfusionPairResult{
				PairID:       pair.ID,
				TestInput:    test.Input,
				ExpectedTool: test.Expected,
				ActualTool:   selection.Tool,
				Reason:       test.Reason,
				Passed:       err == nil && selection.Tool == test.Expected,
			}

			if result.Passed {
				metrics.PassedTests++
				metrics.ByCategory[pair.ID].Passed++
			} else {
				metrics.FailedTests++
				metrics.ByCategory[pair.ID].Failed++
				metrics.FailedDetails = append(metrics.FailedDetails,
					fmt.Sprintf("[%s] %s: expected %s, got %s (%s)",
						pair.ID, test.Input, test.Expected, selection.Tool, test.Reason))
			}
			results = append(results, result)
		}
	}

	if metrics.TotalTests > 0 {
		metrics.Accuracy = float64(metrics.PassedTests) / float64(metrics.TotalTests)
	}
	return metrics, results
}

// compareValues compares an expected body value against what the selector
// produced. JSON unmarshals numbers as float64, so integer expectations are
// widened before comparison.
func compareValues(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}

	ev := reflect.ValueOf(expected)
	av := reflect.ValueOf(actual)

	switch ev.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if av.Kind() == reflect.Float64 {
			return float64(ev.Int()) == av.Float()
		}
	case reflect.Float32, reflect.Float64:
		if av.Kind() == reflect.Float64 {
			return ev.Float() == av.Float()
		}
	}

	if ev.Kind() == reflect.Slice && av.Kind() == reflect.Slice {
		if ev.Len() != av.Len() {
			return false
		}
		for i := 0; i < ev.Len(); i++ {
			if !compareValues(ev.Index(i).Interface(), av.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(expected, actual)
}

// FormatMetrics renders a human-readable summary of an evaluation run.
func FormatMetrics(metrics *EvalMetrics, suiteName string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n=== %s ===\n", suiteName))
	b.WriteString(fmt.Sprintf("Total: %d tests\n", metrics.TotalTests))
	b.WriteString(fmt.Sprintf("Passed: %d (%.1f%%)\n", metrics.PassedTests, metrics.Accuracy*100))
	b.WriteString(fmt.Sprintf("Failed: %d\n", metrics.FailedTests))

	if len(metrics.ByCategory) > 0 {
		b.WriteString("\nBy Category:\n")
		for cat, m := range metrics.ByCategory {
			if m.Total > 0 {
				acc := float64(m.Passed) / float64(m.Total) * 100
				b.WriteString(fmt.Sprintf("  %-25s: %d/%d (%.0f%%)\n", cat, m.Passed, m.Total, acc))
			}
		}
	}

	if n := len(metrics.FailedDetails); n > 0 {
		details := metrics.FailedDetails
		if n > 10 {
			b.WriteString(fmt.Sprintf("\nFailed Tests (showing first 10 of %d):\n", n))
			details = details[:10]
		} else {
			b.WriteString("\nFailed Tests:\n")
		}
		for _, detail := range details {
			b.WriteString(fmt.Sprintf("  - %s\n", detail))
		}
	}

	return b.String()
}
