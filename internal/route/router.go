// Package route maps (method, path) pairs to handlers registered against
// path templates such as /api/player/:pseudo.
//
// Templates are compiled once, at registration, into gorilla/mux routes.
// Matching walks routes in registration order and the first match wins:
// a broad template registered early shadows a narrower one registered later.
// Paths are matched as given, without trailing-slash or percent-decoding
// normalisation.
package route

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
)

// ErrNotFound is returned by Resolve when no route matches
var ErrNotFound = errors.New("route not found")

// paramSigil marks a capture segment in a template
const paramSigil = ':'

var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type contextKey string

const matchContextKey contextKey = "route_match"

// RouteInfo describes a registered route
type RouteInfo struct {
	Method   string
	Template string
	Params   []string
}

// Match is the result of resolving a request against the route table
type Match struct {
	Handler  http.Handler
	Method   string
	Template string
	// Names lists capture names in template order
	Names []string
	// Params maps capture names to the path segments they matched
	Params map[string]string
}

// entry is what gets registered with mux, so a mux match leads back to our metadata
type entry struct {
	info    RouteInfo
	handler http.Handler
}

func (e *entry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.handler.ServeHTTP(w, r)
}

// Router is a method + path template dispatcher.
// Register every route before serving; the table is read-only afterwards.
type Router struct {
	mux    *mux.Router
	routes []RouteInfo

	// NotFound handles requests that match no route.
	// Defaults to http.NotFound.
	NotFound http.Handler
}

// New creates an empty Router
func New() *Router {
	return &Router{mux: mux.NewRouter()}
}

// Handle registers h for method and template.
// It panics if the template is malformed.
func (r *Router) Handle(method, template string, h http.Handler) {
	pattern, names, err := compile(template)
	if err != nil {
		panic(fmt.Sprintf("route: invalid template %s %q: %v", method, template, err))
	}
	if h == nil {
		panic(fmt.Sprintf("route: nil handler for %s %q", method, template))
	}

	info := RouteInfo{Method: method, Template: template, Params: names}
	r.mux.Handle(pattern, &entry{info: info, handler: h}).Methods(method)
	r.routes = append(r.routes, info)
}

// HandleFunc registers a handler function for method and template
func (r *Router) HandleFunc(method, template string, fn func(http.ResponseWriter, *http.Request)) {
	r.Handle(method, template, http.HandlerFunc(fn))
}

// Resolve finds the first route registered for method whose template matches
// the whole of path. It returns ErrNotFound when nothing matches, including
// when the path only matches routes registered for other methods.
func (r *Router) Resolve(method, path string) (*Match, error) {
	req := &http.Request{
		Method: method,
		URL:    &url.URL{Path: path},
		Header: http.Header{},
	}

	var rm mux.RouteMatch
	if !r.mux.Match(req, &rm) || rm.MatchErr != nil {
		return nil, ErrNotFound
	}

	e, ok := rm.Handler.(*entry)
	if !ok {
		return nil, ErrNotFound
	}

	params := make(map[string]string, len(e.info.Params))
	for _, name := range e.info.Params {
		params[name] = rm.Vars[name]
	}

	return &Match{
		Handler:  e.handler,
		Method:   e.info.Method,
		Template: e.info.Template,
		Names:    e.info.Params,
		Params:   params,
	}, nil
}

// Routes returns the registered routes in registration order
func (r *Router) Routes() []RouteInfo {
	out := make([]RouteInfo, len(r.routes))
	copy(out, r.routes)
	return out
}

// ServeHTTP dispatches the request to the matching handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m, err := r.Resolve(req.Method, req.URL.Path)
	if err != nil {
		r.notFound().ServeHTTP(w, req)
		return
	}

	ctx := context.WithValue(req.Context(), matchContextKey, m)
	m.Handler.ServeHTTP(w, req.WithContext(ctx))
}

func (r *Router) notFound() http.Handler {
	if r.NotFound != nil {
		return r.NotFound
	}
	return http.HandlerFunc(http.NotFound)
}

// Params returns the path parameters captured for the request.
// The map is empty for requests not dispatched through a Router.
func Params(r *http.Request) map[string]string {
	if m := MatchFrom(r.Context()); m != nil {
		return m.Params
	}
	return map[string]string{}
}

// Param returns a single captured path parameter
func Param(r *http.Request, name string) string {
	return Params(r)[name]
}

// MatchFrom returns the route match stored in ctx, if any
func MatchFrom(ctx context.Context) *Match {
	m, _ := ctx.Value(matchContextKey).(*Match)
	return m
}

// compile converts a :name template into a mux path template and
// returns the capture names in order
func compile(template string) (string, []string, error) {
	if !strings.HasPrefix(template, "/") {
		return "", nil, errors.New("template must start with /")
	}

	segments := strings.Split(template, "/")
	names := []string{}
	seen := make(map[string]bool)

	for i, seg := range segments {
		if strings.ContainsAny(seg, "{}") {
			return "", nil, errors.New("braces are not allowed in templates")
		}
		if seg == "" || seg[0] != paramSigil {
			continue
		}

		name := seg[1:]
		if !paramNamePattern.MatchString(name) {
			return "", nil, fmt.Errorf("invalid parameter name %q", name)
		}
		if seen[name] {
			return "", nil, fmt.Errorf("duplicate parameter %q", name)
		}
		seen[name] = true
		names = append(names, name)
		segments[i] = "{" + name + "}"
	}

	return strings.Join(segments, "/"), names, nil
}
