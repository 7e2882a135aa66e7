// Package catalog models the static Cloudflare API description and derives
// the MCP tool catalog from it. The description is a build-time artifact
// embedded into the binary; it is parsed once at startup and never mutated.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed description.json
var descriptionJSON []byte

// Document is the parsed API description: an ordered list of path templates,
// each with an ordered list of operations. Order matters: the tool catalog
// and duplicate-name shadowing both follow document order.
type Document struct {
	Paths []Path
}

// Path is one URL path template and the operations exposed at it.
type Path struct {
	Template   string
	Operations []Operation
}

// Operation is one HTTP method at one path.
type Operation struct {
	Method      string // lowercase, as written in the document
	ID          string // operationId; empty means the operation is not exposed
	Summary     string
	Description string
	Parameters  []Parameter
}

// Parameter is a declared operation parameter. Schema is opaque: the
// dispatcher only looks at In, Name, and Required.
type Parameter struct {
	Name     string          `json:"name"`
	In       string          `json:"in"`
	Required bool            `json:"required,omitempty"`
	Schema   json.RawMessage `json:"schema,omitempty"`
}

// Resolved is an operation looked up by tool name, ready for dispatch.
type Resolved struct {
	PathTemplate string
	Method       string // uppercased
	Parameters   []Parameter
}

// httpMethods are the path-item keys treated as operations. Anything else
// under a path (summary, shared parameters) is skipped.
var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// Load parses the embedded description document.
func Load() (*Document, error) {
	return Parse(descriptionJSON)
}

// Parse decodes an API description, preserving the document's own path and
// method ordering. Stdlib map decoding would lose that order, so the paths
// object is walked token by token.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("parsing description: %w", err)
	}

	doc := &Document{}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, fmt.Errorf("parsing description: %w", err)
		}
		if key != "paths" {
			if err := skipValue(dec); err != nil {
				return nil, fmt.Errorf("parsing description %q: %w", key, err)
			}
			continue
		}
		if err := parsePaths(dec, doc); err != nil {
			return nil, fmt.Errorf("parsing paths: %w", err)
		}
	}

	return doc, nil
}

func parsePaths(dec *json.Decoder, doc *Document) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		template, err := stringToken(dec)
		if err != nil {
			return err
		}
		path, err := parsePathItem(dec, template)
		if err != nil {
			return fmt.Errorf("path %s: %w", template, err)
		}
		doc.Paths = append(doc.Paths, path)
	}
	_, err := dec.Token() // closing '}'
	return err
}

func parsePathItem(dec *json.Decoder, template string) (Path, error) {
	path := Path{Template: template}
	if err := expectDelim(dec, '{'); err != nil {
		return path, err
	}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return path, err
		}
		if !httpMethods[strings.ToLower(key)] {
			if err := skipValue(dec); err != nil {
				return path, err
			}
			continue
		}

		var raw struct {
			OperationID string      `json:"operationId"`
			Summary     string      `json:"summary"`
			Description string      `json:"description"`
			Parameters  []Parameter `json:"parameters"`
		}
		if err := dec.Decode(&raw); err != nil {
			return path, fmt.Errorf("method %s: %w", key, err)
		}
		path.Operations = append(path.Operations, Operation{
			Method:      strings.ToLower(key),
			ID:          raw.OperationID,
			Summary:     raw.Summary,
			Description: raw.Description,
			Parameters:  raw.Parameters,
		})
	}
	_, err := dec.Token() // closing '}'
	return path, err
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}

func skipValue(dec *json.Decoder) error {
	var v json.RawMessage
	return dec.Decode(&v)
}

// Resolve finds the operation whose operationId equals name, scanning paths
// in document order and methods in path order, stopping at the first match.
// When two operations share an id, the first one shadows the rest.
func (d *Document) Resolve(name string) (*Resolved, bool) {
	for _, path := range d.Paths {
		for _, op := range path.Operations {
			if op.ID != "" && op.ID == name {
				return &Resolved{
					PathTemplate: path.Template,
					Method:       strings.ToUpper(op.Method),
					Parameters:   op.Parameters,
				}, true
			}
		}
	}
	return nil, false
}
