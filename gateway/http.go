package gateway

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds request bodies read by the gateway.
const maxBodyBytes = 50 << 20

// FromHTTPRequest builds the canonical request for a runtime that hands over a
// *http.Request: a plain server, a Vercel Go function or an edge fetch handler.
func (pr PathResolver) FromHTTPRequest(r *http.Request) (*Request, error) {
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Del("Connection")
	if cookies := header.Values("Cookie"); len(cookies) > 1 {
		header.Del("Cookie")
		header.Set("Cookie", strings.Join(cookies, "; "))
	}

	query := r.URL.Query()
	p := pr.Resolve(PathHints{
		RawPath:   r.URL.EscapedPath(),
		Path:      r.URL.Path,
		QueryPath: query.Get(pr.QueryKey),
		Header:    header,
	})

	var body []byte
	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("gateway: read body: %w", err)
		}
		body = b
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := BaseURL(r.Host, header, scheme)
	setPath(u, p)
	u.RawQuery = BuildQuery("", nil, query, pr.QueryKey)
	if query.Get(pr.QueryKey) == "" {
		u.RawQuery = r.URL.RawQuery
	}

	return &Request{
		Method:    r.Method,
		URL:       u,
		Header:    header,
		Body:      body,
		RequestID: header.Get("X-Vercel-Id"),
	}, nil
}
