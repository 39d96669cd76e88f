package middleware

import (
	"net/http"
)

// Middleware wraps an http.Handler.
type Middleware func(h http.Handler) http.Handler

// Chain wraps h so that middlewares run in the order given, the first one
// seeing the request first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
