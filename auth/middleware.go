package auth

import (
	"net/http"

	"github.com/user/imobiliaria-go/session"
)

// RoutePrefix is where the REST auth endpoints are mounted. Those endpoints read
// the session cookie themselves and are not wrapped by the Guard.
const RoutePrefix = "/api/auth"

// Guard resolves the session cookie to a user and stores it in the request context.
// It never rejects a request: missing, invalid or unresolvable sessions continue
// anonymously and procedures make their own authorization decisions.
func Guard(svc *AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jar, ok := session.JarFromContext(r.Context())
			if !ok {
				jar = session.NewJar(r.Header.Get("Cookie"))
			}
			if u := svc.ResolveJar(r.Context(), jar); u != nil {
				r = r.WithContext(NewContextWithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
