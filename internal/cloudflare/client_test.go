package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/threepointone/cloudflare-api-mcp/internal/catalog"
	apierrors "github.com/threepointone/cloudflare-api-mcp/internal/errors"
)

const clientTestDescription = `{
  "paths": {
    "/zones/{zone_id}/dns_records": {
      "get": {
        "operationId": "dns-records-list",
        "summary": "List DNS records",
        "parameters": [
          {"name": "zone_id", "in": "path", "required": true, "schema": {"type": "string"}}
        ]
      },
      "post": {
        "operationId": "dns-records-create",
        "summary": "Create a DNS record",
        "parameters": [
          {"name": "zone_id", "in": "path", "required": true, "schema": {"type": "string"}}
        ]
      }
    },
    "/zones/{zone_id}/dns_records/{dns_record_id}": {
      "delete": {
        "operationId": "dns-records-delete",
        "summary": "Delete a DNS record",
        "parameters": [
          {"name": "zone_id", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "dns_record_id", "in": "path", "schema": {"type": "string"}}
        ]
      }
    },
    "/user/tokens/verify": {
      "get": {
        "operationId": "user-api-token-verify",
        "summary": "Verify the API token"
      }
    }
  }
}`

func testDoc(t *testing.T) *catalog.Document {
	t.Helper()
	doc, err := catalog.Parse([]byte(clientTestDescription))
	if err != nil {
		t.Fatalf("parsing test description: %v", err)
	}
	return doc
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &Config{
		APIToken:  "test-token",
		BaseURL:   baseURL,
		UserAgent: DefaultUserAgent,
	}
	return NewClient(cfg, testDoc(t))
}

func TestCall_Success(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result": "ok"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Call(context.Background(), "dns-records-list",
		json.RawMessage(`{"path": {"zone_id": "abc123"}}`))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if gotPath != "/zones/abc123/dns_records" {
		t.Errorf("dispatched path = %q, want /zones/abc123/dns_records", gotPath)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("method = %q, want GET", gotMethod)
	}

	// Response is returned unchanged, no transformation
	want := map[string]any{"result": "ok"}
	if !reflect.DeepEqual(result.Value, want) {
		t.Errorf("result = %v, want %v", result.Value, want)
	}
}

func TestCall_Headers(t *testing.T) {
	var gotAuth, gotContentType, gotAccept, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotUserAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	if _, err := client.Call(context.Background(), "user-api-token-verify", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotUserAgent != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUserAgent, DefaultUserAgent)
	}
}

func TestCall_EmptyTokenStillSent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, UserAgent: DefaultUserAgent}, testDoc(t))
	if _, err := client.Call(context.Background(), "user-api-token-verify", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	// Token absence is not validated; an empty bearer goes out as-is.
	// Header parsing on the receiving side trims the trailing space.
	if gotAuth != "Bearer" {
		t.Errorf("Authorization = %q, want empty bearer", gotAuth)
	}
}

func TestCall_BodyForwardedVerbatim(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	args := `{"path": {"zone_id": "abc123"}, "body": {"type": "A", "name": "www", "content": "192.0.2.1"}}`
	result, err := client.Call(context.Background(), "dns-records-create", json.RawMessage(args))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	var sent map[string]any
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent["type"] != "A" || sent["name"] != "www" {
		t.Errorf("body not forwarded verbatim: %v", sent)
	}

	// 201 is a success status
	if result == nil {
		t.Fatal("expected result for 201 response")
	}
}

func TestCall_NoBodyMeansNoBody(t *testing.T) {
	var contentLength int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentLength = r.ContentLength
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	if _, err := client.Call(context.Background(), "dns-records-list",
		json.RawMessage(`{"path": {"zone_id": "z"}}`)); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if contentLength != 0 {
		t.Errorf("request had a body of %d bytes, want none", contentLength)
	}
}

func TestCall_MissingArguments(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`)} {
		_, err := client.Call(context.Background(), "dns-records-list", raw)
		if !apierrors.IsMissingArguments(err) {
			t.Errorf("raw=%q: got %v, want MissingArguments", raw, err)
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("validation failure issued %d HTTP requests, want 0", calls)
	}
}

func TestCall_UnknownOperation(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Call(context.Background(), "no-such-tool", json.RawMessage(`{}`))
	if !apierrors.IsUnknownOperation(err) {
		t.Fatalf("got %v, want UnknownOperation", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("unknown operation issued %d HTTP requests, want 0", calls)
	}
}

func TestCall_MissingRequiredParameter(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Call(context.Background(), "dns-records-list", json.RawMessage(`{"path": {}}`))
	if !apierrors.IsMissingParameter(err) {
		t.Fatalf("got %v, want MissingRequiredParameter", err)
	}
	var missing *apierrors.MissingParameterError
	if !errors.As(err, &missing) || missing.Parameter != "zone_id" {
		t.Errorf("error should name zone_id, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("validation failure issued %d HTTP requests, want 0", calls)
	}
}

func TestCall_NonRequiredParameterNotValidated(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	// dns-records-delete declares dns_record_id without required: true, so
	// its absence passes validation and leaves the placeholder in the URL.
	client := testClient(t, server.URL)
	_, err := client.Call(context.Background(), "dns-records-delete",
		json.RawMessage(`{"path": {"zone_id": "z1"}}`))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if gotPath != "/zones/z1/dns_records/{dns_record_id}" {
		t.Errorf("dispatched path = %q, want unreplaced placeholder", gotPath)
	}
}

func TestCall_InvalidArguments(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Call(context.Background(), "dns-records-list",
		json.RawMessage(`{"path": "not an object"}`))
	if !apierrors.IsInvalidArguments(err) {
		t.Fatalf("got %v, want InvalidArguments", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("invalid arguments issued %d HTTP requests, want 0", calls)
	}
}

func TestCall_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors": [{"code": 7003, "message": "no such zone"}]}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Call(context.Background(), "dns-records-list",
		json.RawMessage(`{"path": {"zone_id": "missing"}}`))
	if !apierrors.IsUpstream(err) {
		t.Fatalf("got %v, want UpstreamError", err)
	}

	var upstream *apierrors.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatal("expected UpstreamError")
	}
	if upstream.StatusCode != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", upstream.StatusCode)
	}
	// Message carries the status text, never the response body
	msg := err.Error()
	if want := "Not Found"; !strings.Contains(msg, want) {
		t.Errorf("message %q should contain %q", msg, want)
	}
	if strings.Contains(msg, "no such zone") {
		t.Errorf("message %q must not include the response body", msg)
	}
}

func TestCall_MalformedResponseJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Call(context.Background(), "user-api-token-verify", json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected parse error for non-JSON response")
	}
	if apierrors.IsUpstream(err) {
		t.Error("parse failure must not be classified as UpstreamError")
	}
}

func TestCall_SingleAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Call(context.Background(), "user-api-token-verify", json.RawMessage(`{}`))
	if !apierrors.IsUpstream(err) {
		t.Fatalf("got %v, want UpstreamError", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server error triggered %d attempts, want exactly 1 (no retries)", n)
	}
}

func TestBuildURL(t *testing.T) {
	params := []catalog.Parameter{
		{Name: "zone_id", In: "path", Required: true},
		{Name: "dns_record_id", In: "path"},
		{Name: "type", In: "query"},
	}
	op := &catalog.Resolved{
		PathTemplate: "/zones/{zone_id}/dns_records/{dns_record_id}",
		Method:       "GET",
		Parameters:   params,
	}

	tests := []struct {
		name     string
		pathArgs map[string]string
		want     string
	}{
		{
			name:     "all parameters supplied",
			pathArgs: map[string]string{"zone_id": "abc123", "dns_record_id": "r1"},
			want:     "https://api.cloudflare.com/client/v4/zones/abc123/dns_records/r1",
		},
		{
			name:     "absent parameter leaves placeholder",
			pathArgs: map[string]string{"zone_id": "abc123"},
			want:     "https://api.cloudflare.com/client/v4/zones/abc123/dns_records/{dns_record_id}",
		},
		{
			name:     "no encoding of values",
			pathArgs: map[string]string{"zone_id": "a/b c", "dns_record_id": "r1"},
			want:     "https://api.cloudflare.com/client/v4/zones/a/b c/dns_records/r1",
		},
		{
			name:     "query parameters never substituted",
			pathArgs: map[string]string{"zone_id": "z", "dns_record_id": "r", "type": "A"},
			want:     "https://api.cloudflare.com/client/v4/zones/z/dns_records/r",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildURL(DefaultBaseURL, op, tt.pathArgs)
			if got != tt.want {
				t.Errorf("BuildURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClient_Options(t *testing.T) {
	custom := &http.Client{}
	client := NewClient(&Config{BaseURL: DefaultBaseURL}, testDoc(t), WithHTTPClient(custom))
	if client.httpClient != custom {
		t.Error("custom HTTP client was not set")
	}
}

func TestNewClient_NoTimeout(t *testing.T) {
	client := NewClient(&Config{BaseURL: DefaultBaseURL}, testDoc(t))
	if client.httpClient.Timeout != 0 {
		t.Errorf("client timeout = %v, want none (transport defaults only)", client.httpClient.Timeout)
	}
}
