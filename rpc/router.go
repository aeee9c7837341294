// Package rpc is a tRPC-compatible procedure dispatcher. Procedures are registered
// on a Router under dotted paths ("properties.search") and served over HTTP with the
// wire format of tRPC's fetch/express adapters: GET for queries, POST for mutations,
// comma-separated batches and optional superjson envelopes.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/session"
	"github.com/user/imobiliaria-go/users"
)

// Kind distinguishes read-only queries from mutations.
type Kind int

const (
	Query Kind = iota
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

// Context is the per-request dispatch context handed to every procedure.
type Context struct {
	context.Context
	Request *http.Request
	// Jar reads the inbound cookies and queues Set-Cookie values for the response.
	Jar *session.Jar
	// User is the resolved session user, nil when anonymous.
	User *users.User
}

// HandlerFunc implements a procedure on its raw (already unwrapped) JSON input.
// An empty input means the caller sent none.
type HandlerFunc func(c *Context, input json.RawMessage) (any, error)

// Procedure is a registered handler and its kind.
type Procedure struct {
	Kind    Kind
	Handler HandlerFunc
}

// Router holds the procedure registry.
type Router struct {
	procs map[string]Procedure
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{procs: make(map[string]Procedure)}
}

func (r *Router) register(path string, kind Kind, h HandlerFunc) {
	if _, dup := r.procs[path]; dup {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", path))
	}
	r.procs[path] = Procedure{Kind: kind, Handler: h}
}

// Query registers a query procedure.
func (r *Router) Query(path string, h HandlerFunc) { r.register(path, Query, h) }

// Mutation registers a mutation procedure.
func (r *Router) Mutation(path string, h HandlerFunc) { r.register(path, Mutation, h) }

// Lookup returns the procedure registered at path.
func (r *Router) Lookup(path string) (Procedure, bool) {
	p, ok := r.procs[path]
	return p, ok
}

// Paths lists every registered procedure path, sorted.
func (r *Router) Paths() []string {
	out := make([]string, 0, len(r.procs))
	for p := range r.procs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Typed adapts a function on a decoded input struct to a HandlerFunc. A missing
// input decodes to the zero value; malformed input is a BadRequestError.
func Typed[I any](fn func(c *Context, in I) (any, error)) HandlerFunc {
	return func(c *Context, raw json.RawMessage) (any, error) {
		var in I
		if err := Bind(raw, &in); err != nil {
			return nil, err
		}
		return fn(c, in)
	}
}

// Bind decodes raw into v, leaving v untouched when raw is empty or null.
func Bind(raw json.RawMessage, v any) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperror.NewBadRequestError("invalid input: "+err.Error(), err)
	}
	return nil
}
