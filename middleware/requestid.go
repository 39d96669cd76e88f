package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/filesharinghq/core/activity"
)

// RequestIDHeader is echoed back with the id used on activity records.
const RequestIDHeader = "X-Request-Id"

// RequestID tags each request with an id, reusing the inbound header when
// present.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if len(id) == 0 {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)

			ctx := activity.WithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
