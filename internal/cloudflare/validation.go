package cloudflare

import (
	"github.com/threepointone/cloudflare-api-mcp/internal/catalog"
	apierrors "github.com/threepointone/cloudflare-api-mcp/internal/errors"
)

// validateRequired checks that every declared path parameter marked required
// has a value in the supplied path arguments. Parameters in other locations,
// or not marked required, are not validated: their absence surfaces only as
// a malformed downstream URL or request body.
func validateRequired(tool string, params []catalog.Parameter, pathArgs map[string]string) error {
	for _, p := range params {
		if p.In != "path" || !p.Required {
			continue
		}
		if _, ok := pathArgs[p.Name]; !ok {
			return &apierrors.MissingParameterError{Tool: tool, Parameter: p.Name}
		}
	}
	return nil
}
