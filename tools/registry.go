// Package tools registers the generated tool catalog with an MCP server.
// One MCP tool is created per operation in the API description; every tool
// shares the same dispatch handler, wrapped with panic recovery, metrics,
// tracing, and logging.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/codes"

	"github.com/threepointone/cloudflare-api-mcp/internal/catalog"
	"github.com/threepointone/cloudflare-api-mcp/internal/cloudflare"
	"github.com/threepointone/cloudflare-api-mcp/metrics"
	"github.com/threepointone/cloudflare-api-mcp/tracing"
)

// Registry wires the tool catalog to the dispatcher.
type Registry struct {
	doc    *catalog.Document
	client *cloudflare.Client
	logger *slog.Logger
}

// NewRegistry creates a new registry over a parsed API description.
func NewRegistry(doc *catalog.Document, client *cloudflare.Client, logger *slog.Logger) *Registry {
	return &Registry{
		doc:    doc,
		client: client,
		logger: logger,
	}
}

// RegisterAll registers every catalog tool with the MCP server and returns
// the number registered. The SDK keys tools by name, so when the description
// contains duplicate operation ids only the first occurrence is registered;
// later ones are logged and skipped. The dispatcher resolves by first match
// as well, so lookup semantics are unchanged.
func (r *Registry) RegisterAll(server *mcp.Server) int {
	seen := make(map[string]bool)
	count := 0
	for _, tool := range r.doc.Tools() {
		if seen[tool.Name] {
			r.logger.Warn("Duplicate operation id, keeping first occurrence", "tool", tool.Name)
			continue
		}
		seen[tool.Name] = true
		server.AddTool(buildTool(tool), r.handler(tool))
		count++
	}
	metrics.SetCatalogSize(count)
	r.logger.Info("Registered all tools", "count", count)
	return count
}

// buildTool creates an mcp.Tool from a catalog entry. The input schema is
// the same generic shape for every tool; annotation hints are derived from
// the HTTP method.
func buildTool(tool catalog.Tool) *mcp.Tool {
	readOnly := tool.Method == "GET" || tool.Method == "HEAD"
	annotations := &mcp.ToolAnnotations{
		Title:          titleFor(tool.Name),
		ReadOnlyHint:   readOnly,
		IdempotentHint: readOnly || tool.Method == "PUT" || tool.Method == "DELETE",
		OpenWorldHint:  ptr(true),
	}
	if tool.Method == "DELETE" {
		annotations.DestructiveHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: catalog.InputSchema(),
		Annotations: annotations,
	}
}

// handler returns the dispatch handler for one tool.
func (r *Registry) handler(tool catalog.Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		defer r.recoverPanic(tool.Name)

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+tool.Name)
		defer span.End()
		tracing.AddToolAttributes(span, tool.Name, tool.Method)

		requestID := uuid.NewString()

		metrics.ToolCallsInFlight.WithLabelValues(tool.Name).Inc()
		defer metrics.ToolCallsInFlight.WithLabelValues(tool.Name).Dec()

		start := time.Now()
		result, err := r.client.Call(ctx, tool.Name, req.Params.Arguments)
		duration := time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordToolCall(tool.Name, duration.Seconds(), false)
			r.logger.Error("Tool failed",
				"tool", tool.Name,
				"request_id", requestID,
				"error", err,
			)
			return nil, fmt.Errorf("%s failed: %w", tool.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordToolCall(tool.Name, duration.Seconds(), true)
		r.logger.Info("Tool executed",
			"tool", tool.Name,
			"request_id", requestID,
			"method", tool.Method,
			"response_bytes", len(result.Body),
			"duration_ms", duration.Milliseconds(),
		)

		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(result.Body)}},
			StructuredContent: result.Value,
		}, nil
	}
}

// recoverPanic recovers from panics in tool handlers.
func (r *Registry) recoverPanic(toolName string) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		r.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
	}
}

// titleFor turns an operation id into a human-readable annotation title,
// e.g. "dns-records-list" becomes "Dns Records List".
func titleFor(name string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}
