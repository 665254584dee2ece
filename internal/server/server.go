// package server contains routing, middleware, and the JSON handlers for the
// download service API.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Router is the routing surface Handlers.Register binds to.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	http.Handler
}

// RequestLogger logs each request's method, path, and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Infof("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
		})
	}
}
