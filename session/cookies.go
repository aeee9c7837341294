package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// CookieOptions describes the attributes of an outbound cookie.
// Zero MaxAge means "session cookie" (no Max-Age attribute).
type CookieOptions struct {
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// Jar is the per-request cookie capability: it reads the inbound Cookie header and
// queues every Set-Cookie value produced while the request is handled. Queued
// cookies are never deduplicated; two Set calls for the same name emit two headers.
type Jar struct {
	mu      sync.Mutex
	inbound map[string]string
	out     []string
}

// NewJar parses a raw Cookie request header.
func NewJar(cookieHeader string) *Jar {
	return &Jar{inbound: parseCookieHeader(cookieHeader)}
}

// parseCookieHeader splits `a=b; c=d` pairs. The first occurrence of a name wins.
func parseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := cookies[name]; seen {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		if strings.Contains(value, "%") {
			if decoded, err := url.PathUnescape(value); err == nil {
				value = decoded
			}
		}
		cookies[name] = value
	}
	return cookies
}

// Get returns the value of the named inbound cookie.
func (j *Jar) Get(name string) (string, bool) {
	v, ok := j.inbound[name]
	return v, ok
}

// Set queues a cookie.
func (j *Jar) Set(name, value string, opts CookieOptions) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if opts.MaxAge > 0 {
		c.MaxAge = int(opts.MaxAge / time.Second)
	}
	j.append(c.String())
}

// Clear queues a cookie with an empty value and Max-Age=0.
func (j *Jar) Clear(name string, opts CookieOptions) {
	c := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     opts.Path,
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
		MaxAge:   -1,
	}
	if c.Path == "" {
		c.Path = "/"
	}
	j.append(c.String())
}

func (j *Jar) append(v string) {
	j.mu.Lock()
	j.out = append(j.out, v)
	j.mu.Unlock()
}

// SetCookies returns a copy of the queued Set-Cookie values in order.
func (j *Jar) SetCookies() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.out))
	copy(out, j.out)
	return out
}

// Flush adds every queued cookie to w as its own Set-Cookie header and empties the queue.
func (j *Jar) Flush(w http.ResponseWriter) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, v := range j.out {
		w.Header().Add("Set-Cookie", v)
	}
	j.out = nil
}

type jarKey struct{}

// WithJar stores a jar owned by an outer layer (the serverless gateway). Handlers
// that find one must queue cookies on it instead of writing them directly.
func WithJar(ctx context.Context, jar *Jar) context.Context {
	return context.WithValue(ctx, jarKey{}, jar)
}

// JarFromContext returns the jar stored by WithJar.
func JarFromContext(ctx context.Context) (*Jar, bool) {
	jar, ok := ctx.Value(jarKey{}).(*Jar)
	return jar, ok
}

// ForRequest returns the jar for r together with a flush function that must be
// called before the response status is written. When an outer layer owns the jar
// (see WithJar) flush does nothing: the owner emits the cookies itself.
func ForRequest(r *http.Request) (*Jar, func(http.ResponseWriter)) {
	if jar, ok := JarFromContext(r.Context()); ok {
		return jar, func(http.ResponseWriter) {}
	}
	jar := NewJar(r.Header.Get("Cookie"))
	return jar, jar.Flush
}
