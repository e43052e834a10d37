package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
)

// QueryString returns a trimmed query parameter, "" when absent.
func QueryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// RequireOneOf ensures at least one of the named query parameters is set
// and returns them in order.
func RequireOneOf(r *http.Request, keys ...string) ([]string, error) {
	values := make([]string, len(keys))
	found := false
	for i, key := range keys {
		values[i] = QueryString(r, key)
		if values[i] != "" {
			found = true
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing addressing parameter").
			WithDetails(map[string]any{"expected_one_of": keys})
	}
	return values, nil
}
