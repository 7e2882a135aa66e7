package cloudflare

import (
	"os"
)

const (
	// DefaultBaseURL is the Cloudflare client v4 API endpoint.
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"

	// DefaultUserAgent identifies this client to the Cloudflare API.
	DefaultUserAgent = "cloudflare-api-mcp/1.0 (github.com/threepointone/cloudflare-api-mcp)"
)

// Config holds Cloudflare API connection settings.
type Config struct {
	// APIToken is the bearer token sent with every request. It may be
	// empty; the token is not validated at startup and an invalid or
	// missing token only surfaces as an upstream rejection.
	APIToken string

	// BaseURL is the API endpoint requests are dispatched against.
	BaseURL string

	// UserAgent identifies the client to the API.
	UserAgent string
}

// LoadConfig loads configuration from environment variables.
// CLOUDFLARE_API_TOKEN supplies the bearer token; CLOUDFLARE_API_BASE_URL
// overrides the endpoint (used by tests and benchmarks).
func LoadConfig() *Config {
	baseURL := os.Getenv("CLOUDFLARE_API_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Config{
		APIToken:  os.Getenv("CLOUDFLARE_API_TOKEN"),
		BaseURL:   baseURL,
		UserAgent: DefaultUserAgent,
	}
}

// HasToken returns true if an API token is configured.
func (c *Config) HasToken() bool {
	return c.APIToken != ""
}
