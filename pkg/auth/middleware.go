package auth

import (
	"net/http"
	"strings"
)

// devPrincipalHeader names the caller when authentication is disabled.
const devPrincipalHeader = "X-Principal"

// Middleware resolves the caller principal for every request and
// stores it on the context. With a nil validator the principal is read
// from the X-Principal header instead — development only.
//
// Requests without a resolvable principal still pass through: the read
// surface is unrestricted, and handlers for mutating endpoints reject
// principal-less requests themselves.
func Middleware(v *Validator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := ""
		if v == nil {
			principal = r.Header.Get(devPrincipalHeader)
		} else if token, ok := bearerToken(r); ok {
			p, err := v.Validate(token)
			if err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			principal = p
		}
		if principal != "" {
			r = r.WithContext(WithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
