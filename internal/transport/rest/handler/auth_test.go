package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtctportal/internal/model"
	"pmtctportal/internal/service"
)

type fakeAuthService struct {
	users map[string]string // username -> password
}

func (f *fakeAuthService) Login(_ context.Context, username, password string) (*model.LoginResponse, error) {
	if f.users[username] != password {
		return nil, service.ErrInvalidCredentials
	}
	return &model.LoginResponse{Token: "tok", Username: username, Role: model.RoleUser}, nil
}

func (f *fakeAuthService) ValidateToken(string) (*model.Claims, error) {
	return nil, service.ErrInvalidToken
}

func (f *fakeAuthService) CreateUser(context.Context, string, string, string) (*model.User, error) {
	return nil, nil
}

func (f *fakeAuthService) ListUsers(context.Context) ([]*model.User, error) { return nil, nil }

func (f *fakeAuthService) DeleteUser(context.Context, string) error { return nil }

func TestLoginSuccess(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{users: map[string]string{"jane": "secret123"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"username":"jane","password":"secret123"}`))
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "jane", resp.Username)
}

func TestLoginBadCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{users: map[string]string{"jane": "secret123"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"username":"jane","password":"wrong"}`))
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginMalformedBody(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader("{"))
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
