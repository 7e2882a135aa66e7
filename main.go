// Cloudflare API MCP Server - A Model Context Protocol server that exposes
// the Cloudflare v4 REST API as tools derived from a static API description.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/threepointone/cloudflare-api-mcp/internal/catalog"
	"github.com/threepointone/cloudflare-api-mcp/internal/cloudflare"
	"github.com/threepointone/cloudflare-api-mcp/tools"
	"github.com/threepointone/cloudflare-api-mcp/tracing"
)

const (
	ServerName    = "cloudflare-api-mcp"
	ServerVersion = "1.0.0"
)

func main() {
	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	// Parse the embedded API description
	doc, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load API description: %v", err)
	}

	// Load configuration from environment
	config := cloudflare.LoadConfig()
	if !config.HasToken() {
		logger.Warn("CLOUDFLARE_API_TOKEN is not set; API calls will be rejected upstream")
	}

	client := cloudflare.NewClient(config, doc, cloudflare.WithLogger(logger))

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: buildInstructions(doc),
	})

	registry := tools.NewRegistry(doc, client, logger)
	count := registry.RegisterAll(server)

	logger.Info("Starting Cloudflare API MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"base_url", config.BaseURL,
		"tools", count,
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// buildInstructions generates the server instructions from the tool catalog,
// one line per tool, so hosts see what the description exposes.
func buildInstructions(doc *catalog.Document) string {
	var sb strings.Builder
	sb.WriteString("Cloudflare API MCP Server exposes the Cloudflare v4 REST API as tools.\n\n")
	sb.WriteString("Every tool takes the same arguments: an optional 'path' object mapping\n")
	sb.WriteString("path parameter names to values, and an optional 'body' sent as JSON.\n\n")
	sb.WriteString("Available tools:\n")
	for _, tool := range doc.Tools() {
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, tool.Description)
	}
	sb.WriteString("\nConfigure via environment variables:\n")
	sb.WriteString("- CLOUDFLARE_API_TOKEN: API token sent as the bearer credential\n")
	return sb.String()
}
