package cloudflare

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	apierrors "github.com/threepointone/cloudflare-api-mcp/internal/errors"
)

// CallArgs is the argument shape shared by every generated tool.
type CallArgs struct {
	// Path maps path parameter names to substitution values.
	Path map[string]string `json:"path,omitempty"`

	// Method is accepted on the wire but not used: the operation's own
	// declared method always wins.
	Method string `json:"method,omitempty"`

	// Body, when present, is serialized as the request body.
	Body json.RawMessage `json:"body,omitempty"`
}

// HasBody reports whether a request body was supplied. An explicit JSON
// null counts as absent.
func (a *CallArgs) HasBody() bool {
	return len(a.Body) > 0 && !bytes.Equal(a.Body, []byte("null"))
}

// decodeArgs parses the raw call-tool arguments. A missing or null
// arguments object fails with MissingArguments; a malformed one fails with
// InvalidArguments listing the offending fields.
func decodeArgs(tool string, raw json.RawMessage) (*CallArgs, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &apierrors.MissingArgumentsError{Tool: tool}
	}

	var args CallArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, asInvalidArguments(err)
	}
	return &args, nil
}

// asInvalidArguments reformats a JSON decode error into the field-level
// InvalidArguments shape.
func asInvalidArguments(err error) *apierrors.InvalidArgumentsError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "arguments"
		}
		return apierrors.NewInvalidArgumentsError(field,
			fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
	}
	return apierrors.NewInvalidArgumentsError("arguments", err.Error())
}
