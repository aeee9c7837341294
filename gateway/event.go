package gateway

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

// Event is the union of the serverless event shapes the gateway accepts:
// Netlify Functions (v1), API Gateway REST (v1) and API Gateway HTTP (v2).
// Unknown fields are ignored, so one decoder serves all of them.
type Event struct {
	Version                         string              `json:"version,omitempty"`
	Path                            string              `json:"path,omitempty"`
	RawPath                         string              `json:"rawPath,omitempty"`
	HTTPMethod                      string              `json:"httpMethod,omitempty"`
	RequestContext                  EventContext        `json:"requestContext"`
	Headers                         map[string]string   `json:"headers,omitempty"`
	MultiValueHeaders               map[string][]string `json:"multiValueHeaders,omitempty"`
	QueryStringParameters           map[string]string   `json:"queryStringParameters,omitempty"`
	MultiValueQueryStringParameters map[string][]string `json:"multiValueQueryStringParameters,omitempty"`
	PathParameters                  map[string]string   `json:"pathParameters,omitempty"`
	RawQuery                        string              `json:"rawQuery,omitempty"`
	RawQueryString                  string              `json:"rawQueryString,omitempty"`
	Cookies                         []string            `json:"cookies,omitempty"`

	// Body is either a JSON string or, for some local emulators, a JSON document.
	Body            json.RawMessage `json:"body,omitempty"`
	IsBase64Encoded bool            `json:"isBase64Encoded,omitempty"`
}

// EventContext is the subset of requestContext the gateway reads.
type EventContext struct {
	RequestID string `json:"requestId,omitempty"`
	HTTP      struct {
		Method string `json:"method,omitempty"`
		Path   string `json:"path,omitempty"`
	} `json:"http"`
}

// EventResponse is returned to the serverless runtime.
type EventResponse struct {
	StatusCode        int                 `json:"statusCode"`
	Headers           map[string]string   `json:"headers"`
	MultiValueHeaders map[string][]string `json:"multiValueHeaders,omitempty"`
	Cookies           []string            `json:"cookies,omitempty"`
	Body              string              `json:"body"`
	IsBase64Encoded   bool                `json:"isBase64Encoded"`
}

func (e *Event) method() string {
	m := e.HTTPMethod
	if m == "" {
		m = e.RequestContext.HTTP.Method
	}
	if m == "" {
		return http.MethodGet
	}
	return strings.ToUpper(m)
}

// v2 reports whether the runtime expects the HTTP API (v2) response format.
func (e *Event) v2() bool {
	return e.Version == "2.0"
}

func (e *Event) host() string {
	for k, v := range e.Headers {
		if strings.EqualFold(k, "host") {
			return v
		}
	}
	for k, vs := range e.MultiValueHeaders {
		if strings.EqualFold(k, "host") && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// FromEvent builds the canonical request for a serverless event.
func (pr PathResolver) FromEvent(e *Event) (*Request, error) {
	header := TranslateHeaders(e.Headers, e.MultiValueHeaders)
	if len(e.Cookies) > 0 && header.Get("Cookie") == "" {
		header.Set("Cookie", strings.Join(e.Cookies, "; "))
	}

	rawPath := e.RawPath
	if rawPath == "" {
		rawPath = e.RequestContext.HTTP.Path
	}
	queryPath := e.QueryStringParameters[pr.QueryKey]
	if queryPath == "" {
		if vs := e.MultiValueQueryStringParameters[pr.QueryKey]; len(vs) > 0 {
			queryPath = vs[0]
		}
	}
	p := pr.Resolve(PathHints{
		RawPath:    rawPath,
		Path:       e.Path,
		QueryPath:  queryPath,
		PathParams: e.PathParameters,
		Header:     header,
	})

	method := e.method()
	body, err := DecodeBody(method, e.Body, e.IsBase64Encoded)
	if err != nil {
		return nil, err
	}

	raw := e.RawQuery
	if raw == "" {
		raw = e.RawQueryString
	}
	u := BaseURL(e.host(), header, "https")
	setPath(u, p)
	u.RawQuery = BuildQuery(raw, e.QueryStringParameters, e.MultiValueQueryStringParameters, pr.QueryKey)

	return &Request{
		Method:    method,
		URL:       u,
		Header:    header,
		Body:      body,
		RequestID: e.RequestContext.RequestID,
	}, nil
}

// ToEvent renders a canonical response in the shape the event's runtime accepts:
// a cookies array for v2 events, a multi-value Set-Cookie header otherwise.
func ToEvent(e *Event, resp *Response) *EventResponse {
	out := &EventResponse{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
	}
	for k, vs := range resp.Header {
		out.Headers[k] = strings.Join(vs, ", ")
	}
	if len(resp.SetCookies) > 0 {
		if e.v2() {
			out.Cookies = append([]string(nil), resp.SetCookies...)
		} else {
			out.MultiValueHeaders = map[string][]string{
				"Set-Cookie": append([]string(nil), resp.SetCookies...),
			}
		}
	}
	if utf8.Valid(resp.Body) {
		out.Body = string(resp.Body)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(resp.Body)
		out.IsBase64Encoded = true
	}
	return out
}

// EventFromAPIGateway converts a REST API (v1) proxy request.
func EventFromAPIGateway(req events.APIGatewayProxyRequest) *Event {
	e := &Event{
		Path:                            req.Path,
		HTTPMethod:                      req.HTTPMethod,
		Headers:                         req.Headers,
		MultiValueHeaders:               req.MultiValueHeaders,
		QueryStringParameters:           req.QueryStringParameters,
		MultiValueQueryStringParameters: req.MultiValueQueryStringParameters,
		PathParameters:                  req.PathParameters,
		IsBase64Encoded:                 req.IsBase64Encoded,
	}
	e.RequestContext.RequestID = req.RequestContext.RequestID
	if req.Body != "" {
		e.Body, _ = json.Marshal(req.Body)
	}
	return e
}

// EventFromAPIGatewayV2 converts an HTTP API (v2) request.
func EventFromAPIGatewayV2(req events.APIGatewayV2HTTPRequest) *Event {
	e := &Event{
		Version:               req.Version,
		RawPath:               req.RawPath,
		RawQueryString:        req.RawQueryString,
		Cookies:               req.Cookies,
		Headers:               req.Headers,
		QueryStringParameters: req.QueryStringParameters,
		PathParameters:        req.PathParameters,
		IsBase64Encoded:       req.IsBase64Encoded,
	}
	e.RequestContext.RequestID = req.RequestContext.RequestID
	e.RequestContext.HTTP.Method = req.RequestContext.HTTP.Method
	e.RequestContext.HTTP.Path = req.RequestContext.HTTP.Path
	if req.Body != "" {
		e.Body, _ = json.Marshal(req.Body)
	}
	return e
}

// APIGatewayResponse converts an EventResponse for a REST API (v1) integration.
func (r *EventResponse) APIGatewayResponse() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode:        r.StatusCode,
		Headers:           r.Headers,
		MultiValueHeaders: r.MultiValueHeaders,
		Body:              r.Body,
		IsBase64Encoded:   r.IsBase64Encoded,
	}
}

// APIGatewayV2Response converts an EventResponse for an HTTP API (v2) integration.
func (r *EventResponse) APIGatewayV2Response() events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode:      r.StatusCode,
		Headers:         r.Headers,
		Cookies:         r.Cookies,
		Body:            r.Body,
		IsBase64Encoded: r.IsBase64Encoded,
	}
}
