package catalog

import (
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a catalog entry: one operation surfaced to the MCP host.
type Tool struct {
	// Name is the operationId from the description.
	Name string

	// Description is the operation's summary, falling back to its
	// description text.
	Description string

	// Method is the operation's HTTP method, uppercased. Used for tool
	// annotations only; the dispatcher re-resolves the operation by name.
	Method string
}

// Tools returns one entry per operation with a non-empty operationId, in
// document order. Operations without an id are silently excluded. Duplicate
// ids are NOT collapsed here: the catalog reflects the document as-is, and
// only the first occurrence is reachable through Resolve.
func (d *Document) Tools() []Tool {
	var tools []Tool
	for _, path := range d.Paths {
		for _, op := range path.Operations {
			if op.ID == "" {
				continue
			}
			desc := op.Summary
			if desc == "" {
				desc = op.Description
			}
			tools = append(tools, Tool{
				Name:        op.ID,
				Description: desc,
				Method:      strings.ToUpper(op.Method),
			})
		}
	}
	return tools
}

// InputSchema returns the input schema attached to every tool. It is the
// same generic shape for all operations: it does not reflect the operation's
// declared parameters, so hosts cannot pre-validate calls against it.
func InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"path": {
				Type:                 "object",
				Description:          "Values for {placeholder} path parameters, keyed by parameter name",
				AdditionalProperties: &jsonschema.Schema{Type: "string"},
			},
			"method": {
				Type:        "string",
				Description: "Accepted but unused; the operation's declared HTTP method is always used",
			},
			"body": {
				Description: "Request body, sent as JSON",
			},
		},
	}
}
