package logingate

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Middleware wraps a route handle
type Middleware func(httprouter.Handle) httprouter.Handle

// Router ...
type Router struct {
	mws    []Middleware
	prefix string
	router *httprouter.Router
}

// NewRouter ...
func NewRouter() *Router {
	return &Router{
		router: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: false,
			HandleOPTIONS:          true,
		},
	}
}

// Group returns a router for routes under prefix sharing the parent's
// middleware plus mws
func (r *Router) Group(prefix string, mws ...Middleware) *Router {
	stack := make([]Middleware, 0, len(r.mws)+len(mws))
	stack = append(stack, r.mws...)
	stack = append(stack, mws...)

	return &Router{
		mws:    stack,
		prefix: r.prefix + prefix,
		router: r.router,
	}
}

// NotFound sets the handler for requests no route matches
func (r *Router) NotFound(h http.Handler) {
	r.router.NotFound = h
}

// Handle ...
func (r *Router) Handle(method, path string, handle httprouter.Handle) {
	for i := len(r.mws) - 1; i >= 0; i-- {
		handle = r.mws[i](handle)
	}
	r.router.Handle(method, r.prefix+path, handle)
}

// Handler ...
func (r *Router) Handler(method, path string, handler http.Handler) {
	r.Handle(method, path, func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		handler.ServeHTTP(w, req)
	})
}

// ServeFilesWithCacheControl serves files from fs with long-lived caching
// headers. path must end with /*filepath.
func (r *Router) ServeFilesWithCacheControl(path string, fs http.FileSystem) {
	if len(path) < 10 || path[len(path)-10:] != "/*filepath" {
		panic("path must end with /*filepath in path '" + path + "'")
	}

	fileServer := http.FileServer(fs)

	r.Handle(http.MethodGet, path, func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Set("Cache-Control", "public, max-age=7776000")

		// Leave the routed request untouched for middleware
		file := req.Clone(req.Context())
		file.URL.Path = ps.ByName("filepath")
		fileServer.ServeHTTP(w, file)
	})
}

// ServeHTTP ...
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
