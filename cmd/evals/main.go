// Command evals inspects the evaluation suites and validates them against
// the embedded API description.
//
// Usage:
//
//	go run ./cmd/evals -dir ./evals -suite all
//
// The command reports suite coverage and flags tests that reference
// operations or path parameters the catalog does not declare. To score an
// actual model, implement evals.ToolSelector and call
// EvaluateToolSelection / EvaluateConfusionPairs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/threepointone/cloudflare-api-mcp/evals"
	"github.com/threepointone/cloudflare-api-mcp/internal/catalog"
)

func main() {
	dir := flag.String("dir", "./evals", "Directory containing eval JSON files")
	suite := flag.String("suite", "all", "Suite to load: tool_selection, confusion_pairs, or all")
	verbose := flag.Bool("verbose", false, "Show individual test cases")
	flag.Parse()

	doc, err := catalog.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading API description: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Cloudflare API MCP Server - Evaluation Suites")
	fmt.Println("=============================================")
	fmt.Println()

	problems := 0
	switch *suite {
	case "tool_selection":
		problems = showToolSelection(*dir, doc, *verbose)
	case "confusion_pairs":
		problems = showConfusionPairs(*dir, doc, *verbose)
	case "all":
		problems = showToolSelection(*dir, doc, *verbose)
		problems += showConfusionPairs(*dir, doc, *verbose)
	default:
		fmt.Fprintf(os.Stderr, "Unknown suite: %s\n", *suite)
		os.Exit(1)
	}

	if problems > 0 {
		fmt.Fprintf(os.Stderr, "\n%d catalog mismatches found\n", problems)
		os.Exit(1)
	}
}

func showToolSelection(dir string, doc *catalog.Document, verbose bool) int {
	suite, err := evals.LoadToolSelectionSuite(filepath.Join(dir, "tool_selection.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tool selection suite: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tool Selection Suite: %s (v%s)\n", suite.Name, suite.Version)
	fmt.Printf("Total Tests: %d\n\n", len(suite.Tests))

	categories := make(map[string]int)
	tools := make(map[string]int)
	for _, test := range suite.Tests {
		categories[test.Category]++
		tools[test.ExpectedTool]++
	}

	fmt.Println("Tests by Category:")
	for _, cat := range sortedKeys(categories) {
		fmt.Printf("  %-15s: %d\n", cat, categories[cat])
	}
	fmt.Println()

	fmt.Println("Tests by Tool:")
	for _, tool := range sortedKeys(tools) {
		fmt.Printf("  %-30s: %d\n", tool, tools[tool])
	}
	fmt.Println()

	if verbose {
		fmt.Println("Test Cases:")
		for _, test := range suite.Tests {
			fmt.Printf("  [%s] %s -> %s\n", test.ID, test.Input, test.ExpectedTool)
		}
		fmt.Println()
	}

	return report(evals.ValidateSuite(suite, doc))
}

func showConfusionPairs(dir string, doc *catalog.Document, verbose bool) int {
	suite, err := evals.LoadConfusionPairSuite(filepath.Join(dir, "confusion_pairs.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading confusion pairs suite: %v\n", err)
		os.Exit(1)
	}

	totalTests := 0
	for _, pair := range suite.Pairs {
		totalTests += len(pair.Tests)
	}

	fmt.Printf("Confusion Pairs Suite: %s (v%s)\n", suite.Name, suite.Version)
	fmt.Printf("Total: %d tests across %d pairs\n\n", totalTests, len(suite.Pairs))

	for _, pair := range suite.Pairs {
		fmt.Printf("  %s: %v\n", pair.ID, pair.Tools)
		fmt.Printf("    Rule: %s\n", pair.Disambiguation)
		if verbose {
			for _, test := range pair.Tests {
				fmt.Printf("    %q -> %s (%s)\n", test.Input, test.Expected, test.Reason)
			}
		}
	}
	fmt.Println()

	return report(evals.ValidateConfusionPairs(suite, doc))
}

func report(problems []string) int {
	for _, problem := range problems {
		fmt.Fprintf(os.Stderr, "MISMATCH: %s\n", problem)
	}
	return len(problems)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
