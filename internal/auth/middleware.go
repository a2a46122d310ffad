package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Middleware validates JWTs and enforces the back-office role ladder
// (viewer < preparateur < validateur < admin) per route.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// Wrap applies auth and RBAC to the handler. Denials name the required role
// so a preparateur hitting a validateur-only endpoint (validate, execution
// report, recovery) sees why.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		required, ok := m.Policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearer(r)
		claims, err := ParseJWT(token, m.Secret)
		if err != nil {
			respondDenied(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		role, _ := NormalizeRole(claims.Role)
		ctx := WithIdentity(r.Context(), claims.TenantID, role, claims.Subject)
		if !RoleAtLeast(role, required) {
			respondDenied(w, http.StatusForbidden, "forbidden", required)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondDenied(w http.ResponseWriter, status int, message string, required Role) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": message}
	if required != "" {
		body["required_role"] = string(required)
	}
	_ = json.NewEncoder(w).Encode(body)
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
