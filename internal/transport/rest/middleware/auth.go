package middleware

import (
	"context"
	"net/http"
	"strings"

	"pmtctportal/internal/model"
	"pmtctportal/internal/service"
)

type contextKey string

const (
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireAuth validates the JWT from the Authorization header
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireSuperuser validates the JWT and rejects non-superuser accounts
func (m *AuthMiddleware) RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		if claims.Role != model.RoleSuperuser {
			http.Error(w, `{"error":"superuser access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*model.Claims, bool) {
	if r.Method == http.MethodOptions {
		// CORS preflight carries no credentials
		w.WriteHeader(http.StatusOK)
		return nil, false
	}

	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
		return nil, false
	}

	claims, err := m.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, claims *model.Claims) context.Context {
	ctx = context.WithValue(ctx, UsernameKey, claims.Username)
	return context.WithValue(ctx, RoleKey, claims.Role)
}

// GetUsername extracts the authenticated username from context
func GetUsername(ctx context.Context) string {
	if v := ctx.Value(UsernameKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetRole extracts the authenticated role from context
func GetRole(ctx context.Context) string {
	if v := ctx.Value(RoleKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
