package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"pmtctportal/internal/model"
	"pmtctportal/internal/service"
)

type fakeAuthService struct {
	claims *model.Claims
}

func (f *fakeAuthService) Login(context.Context, string, string) (*model.LoginResponse, error) {
	return nil, service.ErrInvalidCredentials
}

func (f *fakeAuthService) ValidateToken(token string) (*model.Claims, error) {
	if f.claims == nil || token != "good-token" {
		return nil, service.ErrInvalidToken
	}
	return f.claims, nil
}

func (f *fakeAuthService) CreateUser(context.Context, string, string, string) (*model.User, error) {
	return nil, nil
}

func (f *fakeAuthService) ListUsers(context.Context) ([]*model.User, error) { return nil, nil }

func (f *fakeAuthService) DeleteUser(context.Context, string) error { return nil }

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUsername(r.Context()) + "/" + GetRole(r.Context())))
	})
}

func TestRequireAuthMissingHeader(t *testing.T) {
	mw := NewAuthMiddleware(&fakeAuthService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	mw.RequireAuth(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthBadToken(t *testing.T) {
	mw := NewAuthMiddleware(&fakeAuthService{claims: &model.Claims{Username: "u", Role: model.RoleUser}})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer wrong")

	mw.RequireAuth(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthSetsIdentity(t *testing.T) {
	mw := NewAuthMiddleware(&fakeAuthService{claims: &model.Claims{Username: "jane", Role: model.RoleUser}})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	mw.RequireAuth(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane/user", rec.Body.String())
}

func TestRequireSuperuserRejectsUserRole(t *testing.T) {
	mw := NewAuthMiddleware(&fakeAuthService{claims: &model.Claims{Username: "jane", Role: model.RoleUser}})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	mw.RequireSuperuser(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireSuperuserAllowsSuperuser(t *testing.T) {
	mw := NewAuthMiddleware(&fakeAuthService{claims: &model.Claims{Username: "root", Role: model.RoleSuperuser}})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	mw.RequireSuperuser(echoIdentity()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root/superuser", rec.Body.String())
}
