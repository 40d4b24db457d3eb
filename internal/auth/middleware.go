package auth

import (
	"net/http"
	"strings"
)

// Middleware resolves the caller from the Authorization header once per
// request and stores it on the context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		raw := strings.TrimPrefix(h, "Bearer ")
		claims, err := v.ParseAndValidate(raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		caller := Caller{
			UserID:          claims.UserID,
			Roles:           claims.Roles,
			ScopedEntityIDs: claims.ScopedEntityIDs,
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireStaff rejects callers without the staff role.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := CallerFrom(r.Context())
		if !ok || !c.HasRole(RoleStaff) {
			http.Error(w, "forbidden (staff only)", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
