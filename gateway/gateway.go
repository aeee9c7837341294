package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/session"
)

// Gateway adapts serverless runtimes to an http.Handler.
type Gateway struct {
	handler  http.Handler
	resolver PathResolver
	logger   *slog.Logger
}

// New creates a Gateway dispatching to handler with the default path resolver.
func New(handler http.Handler, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{handler: handler, resolver: DefaultResolver(), logger: logger}
}

// WithResolver returns a copy of g using pr for path resolution.
func (g *Gateway) WithResolver(pr PathResolver) *Gateway {
	cp := *g
	cp.resolver = pr
	return &cp
}

// Dispatch runs one canonical request through the handler. Cookies queued on the
// request's jar and Set-Cookie headers written by the handler are merged, in that
// order, into Response.SetCookies. It never panics: failures become a JSON 500.
func (g *Gateway) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("panic while dispatching request", "panic", rec)
			resp = internalError(fmt.Errorf("%v", rec))
		}
	}()

	jar := session.NewJar(req.CookieHeader())
	hreq, err := req.HTTPRequest(session.WithJar(ctx, jar))
	if err != nil {
		g.logger.Error("failed to build request", "error", err)
		return internalError(err)
	}
	if hreq.Header.Get("X-Request-Id") == "" {
		id := req.RequestID
		if id == "" {
			id = uuid.NewString()
		}
		hreq.Header.Set("X-Request-Id", id)
	}

	buf := newResponseBuffer()
	g.handler.ServeHTTP(buf, hreq)

	header := buf.header.Clone()
	inner := header.Values("Set-Cookie")
	header.Del("Set-Cookie")
	header.Del("Content-Encoding")
	header.Del("Content-Length")

	return &Response{
		StatusCode: buf.status,
		Header:     header,
		SetCookies: append(jar.SetCookies(), inner...),
		Body:       buf.body.Bytes(),
	}
}

// HandleEvent serves one serverless event. The signature fits lambda.Start.
func (g *Gateway) HandleEvent(ctx context.Context, e Event) (*EventResponse, error) {
	req, err := g.resolver.FromEvent(&e)
	if err != nil {
		g.logger.Error("failed to normalize event", "error", err)
		return ToEvent(&e, internalError(err)), nil
	}
	return ToEvent(&e, g.Dispatch(ctx, req)), nil
}

// ServeHTTP implements http.Handler for runtimes that supply a *http.Request.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := g.resolver.FromHTTPRequest(r)
	if err != nil {
		g.logger.Error("failed to normalize request", "error", err)
		internalError(err).WriteTo(w)
		return
	}
	g.Dispatch(r.Context(), req).WriteTo(w)
}

// internalError is the response for failures outside the application handler.
func internalError(err error) *Response {
	body, _ := json.Marshal(apperror.ErrorResponse{Error: "Internal server error", Message: err.Error()})
	return &Response{
		StatusCode: http.StatusInternalServerError,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	}
}
