package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// hopHeaders are transport-level headers that never reach the application.
var hopHeaders = map[string]bool{"Host": true, "Connection": true}

// TranslateHeaders merges single- and multi-valued header maps into an
// http.Header, dropping Host and Connection. Multi values are joined with ", "
// (Cookie values with "; ").
func TranslateHeaders(single map[string]string, multi map[string][]string) http.Header {
	out := make(http.Header, len(single)+len(multi))
	for k, v := range single {
		key := http.CanonicalHeaderKey(k)
		if hopHeaders[key] {
			continue
		}
		out.Set(key, v)
	}
	for k, vs := range multi {
		key := http.CanonicalHeaderKey(k)
		if hopHeaders[key] || len(vs) == 0 {
			continue
		}
		sep := ", "
		if key == "Cookie" {
			sep = "; "
		}
		out.Set(key, strings.Join(vs, sep))
	}
	return out
}

// BuildQuery returns rawQuery when present. Otherwise it rebuilds the query from
// structured parameters, skipping exclude; multi values become repeated keys.
func BuildQuery(rawQuery string, single map[string]string, multi map[string][]string, exclude string) string {
	if rawQuery != "" {
		return strings.TrimPrefix(rawQuery, "?")
	}
	values := url.Values{}
	for k, vs := range multi {
		if k == exclude {
			continue
		}
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	for k, v := range single {
		if k == exclude {
			continue
		}
		if _, done := multi[k]; done {
			continue
		}
		values.Set(k, v)
	}
	return values.Encode()
}

// DecodeBody returns the request body bytes. GET and HEAD never carry one.
// A base64 flagged body is decoded; a JSON string is unquoted; any other JSON
// value (a structured body) is passed on as JSON text.
func DecodeBody(method string, body json.RawMessage, isBase64 bool) ([]byte, error) {
	if method == http.MethodGet || method == http.MethodHead {
		return nil, nil
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return []byte{}, nil
	}

	text := []byte(trimmed)
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("gateway: body string: %w", err)
		}
		text = []byte(s)
	} else if isBase64 {
		return nil, fmt.Errorf("gateway: base64 body must be a string")
	}

	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(string(text))
		if err != nil {
			return nil, fmt.Errorf("gateway: body is not valid base64: %w", err)
		}
		return decoded, nil
	}
	return text, nil
}

// firstValue returns the first element of a comma-separated header value.
func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

func firstForwardedFor(h http.Header) string {
	return firstValue(h.Get("X-Forwarded-For"))
}

// BaseURL returns scheme://host for a request, from X-Forwarded-Proto and the
// Host (or X-Forwarded-Host) header. defaultScheme applies when neither says.
func BaseURL(host string, h http.Header, defaultScheme string) *url.URL {
	scheme := firstValue(h.Get("X-Forwarded-Proto"))
	if scheme == "" {
		scheme = defaultScheme
	}
	if host == "" {
		host = firstValue(h.Get("X-Forwarded-Host"))
	}
	if host == "" {
		host = "localhost"
	}
	return &url.URL{Scheme: scheme, Host: host}
}
