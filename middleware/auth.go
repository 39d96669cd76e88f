package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader is the header carrying the usage plan key.
const APIKeyHeader = "X-Api-Key"

// RequireAPIKey rejects requests whose x-api-key does not match key, the
// way the API gateway does. Preflight requests are let through.
func RequireAPIKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(APIKeyHeader)
			if len(got) == 0 || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeMessage(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
