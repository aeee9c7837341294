package gateway

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// functionMount matches the internal path Netlify invokes functions under.
var functionMount = regexp.MustCompile(`/\.netlify/functions/[^/]+/?(.*)`)

// PathHints are the path fragments a runtime may supply. Any of them may be empty.
type PathHints struct {
	// RawPath is an explicit raw or original path (event rawPath).
	RawPath string
	// Path is the generic path field (event path, URL path).
	Path string
	// QueryPath is the rest of the path carried in the query string.
	QueryPath string
	// PathParams are structured path parameters, including catch-all segments.
	PathParams map[string]string
	// Header carries the inbound headers, for the original-URL fallback.
	Header http.Header
}

// PathResolver recovers the requested API path from PathHints.
type PathResolver struct {
	// Prefixes are the API namespaces. The first one is the fallback and the base
	// that path fragments are rebuilt under.
	Prefixes []string
	// QueryKey is the query parameter that carries the rest of the path.
	QueryKey string
	// ParamKeys are the catch-all path parameter names, tried in order.
	ParamKeys []string
	// URLHeaders carry the original external URL, tried in order.
	URLHeaders []string
	// Routes are concrete API paths outside the namespaces that pass through as is.
	Routes []string
}

// DefaultResolver serves the RPC and auth namespaces plus the health routes.
func DefaultResolver() PathResolver {
	return PathResolver{
		Prefixes:   []string{"/api/trpc", "/api/auth"},
		QueryKey:   "path",
		ParamKeys:  []string{"proxy", "*", "path", "splat"},
		URLHeaders: []string{"X-Original-Url", "X-Forwarded-Url"},
		Routes:     []string{"/api/health", "/api/test"},
	}
}

func (pr PathResolver) base() string {
	if len(pr.Prefixes) == 0 {
		return "/api"
	}
	return pr.Prefixes[0]
}

// inNamespace reports whether p equals a prefix or lies under it.
func (pr PathResolver) inNamespace(p string) bool {
	for _, prefix := range pr.Prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// accepts reports whether p may be dispatched unchanged.
func (pr PathResolver) accepts(p string) bool {
	if pr.inNamespace(p) {
		return true
	}
	for _, route := range pr.Routes {
		if p == route {
			return true
		}
	}
	return false
}

// rebuild joins a path fragment onto the base prefix. A fragment that already
// names a namespace ("api/trpc/x") or a pass-through route is kept as is.
func (pr PathResolver) rebuild(fragment string) string {
	fragment = strings.TrimLeft(fragment, "/")
	if fragment == "" {
		return pr.base()
	}
	if pr.accepts("/" + fragment) {
		return "/" + fragment
	}
	return pr.base() + "/" + fragment
}

// Resolve applies, in order: raw path, generic path, query-carried path, catch-all
// path parameters, the function-mount rewrite, the original-URL headers and finally
// the bare base prefix. The result always lies inside the API namespace.
func (pr PathResolver) Resolve(h PathHints) string {
	return pr.force(pr.resolve(h))
}

func (pr PathResolver) resolve(h PathHints) string {
	if h.RawPath != "" && pr.accepts(h.RawPath) {
		return h.RawPath
	}
	if h.Path != "" && pr.accepts(h.Path) {
		return h.Path
	}
	if h.QueryPath != "" {
		return pr.rebuild(h.QueryPath)
	}
	for _, key := range pr.ParamKeys {
		if v := h.PathParams[key]; v != "" {
			return pr.rebuild(v)
		}
	}
	for _, p := range []string{h.RawPath, h.Path} {
		if m := functionMount.FindStringSubmatch(p); m != nil {
			return pr.rebuild(m[1])
		}
	}
	for _, name := range pr.URLHeaders {
		raw := h.Header.Get(name)
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err == nil && pr.accepts(u.Path) {
			return u.Path
		}
	}
	return pr.base()
}

// force keeps p inside the API namespace.
func (pr PathResolver) force(p string) string {
	if pr.accepts(p) {
		return p
	}
	return pr.rebuild(p)
}

// setPath stores a resolved path on u. An escaped path keeps its encoding in
// RawPath so URL.String does not escape it again.
func setPath(u *url.URL, p string) {
	if dec, err := url.PathUnescape(p); err == nil && dec != p {
		u.Path, u.RawPath = dec, p
		return
	}
	u.Path, u.RawPath = p, ""
}
