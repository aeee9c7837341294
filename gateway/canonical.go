// Package gateway normalizes requests arriving from different hosting runtimes
// (plain net/http servers and Vercel functions, Netlify Functions and AWS Lambda
// events) into one canonical request, dispatches it through the application's
// http.Handler and translates the canonical response back into the runtime's shape.
package gateway

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// Request is the canonical request descriptor built once per inbound event.
type Request struct {
	Method string
	// URL is absolute and its path always lies inside one of the API prefixes.
	URL    *url.URL
	Header http.Header
	// Body is nil for GET and HEAD.
	Body []byte
	// RequestID is propagated as X-Request-Id when the runtime supplied one.
	RequestID string
}

// CookieHeader returns the raw Cookie header.
func (r *Request) CookieHeader() string {
	return r.Header.Get("Cookie")
}

// HTTPRequest builds the *http.Request dispatched to the application handler.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Host = r.URL.Host
	req.RequestURI = r.URL.RequestURI()
	if r.Body == nil {
		req.Body = http.NoBody
		req.ContentLength = 0
	}
	if ip := firstForwardedFor(r.Header); ip != "" {
		req.RemoteAddr = ip
	}
	return req, nil
}

// Response is the canonical response descriptor. Header never carries Set-Cookie
// or Content-Encoding; every cookie is a separate entry of SetCookies. Runtimes
// receive at most one value per header name: ToEvent joins repeated values with
// ", ", and only SetCookies may repeat.
type Response struct {
	StatusCode int
	Header     http.Header
	SetCookies []string
	Body       []byte
}

// WriteTo writes the response to w, one Set-Cookie header per cookie.
func (r *Response) WriteTo(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	for _, c := range r.SetCookies {
		h.Add("Set-Cookie", c)
	}
	w.WriteHeader(r.StatusCode)
	_, _ = w.Write(r.Body)
}

// responseBuffer captures the application handler's output.
type responseBuffer struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header), status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	return b.body.Write(p)
}
