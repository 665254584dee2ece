package server

import (
	"net/http"
	"strings"
)

// BasicRouter routes requests through an [http.ServeMux] and enforces the
// registered method for each pattern, answering mismatches with the API's
// JSON error envelope.
type BasicRouter struct {
	mux   *http.ServeMux
	chain []Middleware
}

// NewBasicRouter creates an empty router.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware to the chain. Middleware added first runs outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.chain = append(r.chain, middleware...)
}

// Handle registers handler for the given method and ServeMux pattern,
// wrapped in the middleware chain. Requests matching the pattern with a
// different method get a 405 detail response.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	wrapped := r.wrap(handler)

	r.mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		if !strings.EqualFold(req.Method, method) {
			writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		wrapped.ServeHTTP(w, req)
	})
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// wrap applies the middleware chain in reverse order so the first-added
// middleware ends up outermost.
func (r *BasicRouter) wrap(handler http.Handler) http.Handler {
	for i := len(r.chain) - 1; i >= 0; i-- {
		handler = r.chain[i](handler)
	}
	return handler
}
