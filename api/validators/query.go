package validators

import (
	"net/http"
)

// QueryString returns a trimmed query parameter capped at maxLen bytes.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
