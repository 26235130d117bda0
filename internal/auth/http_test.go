// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roverlabs/clubhub/internal/auth"
	"github.com/roverlabs/clubhub/internal/platform/audit"
	"github.com/roverlabs/clubhub/internal/platform/middleware"
	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// newTestRouter mounts the auth and admin routers exactly as the server does.
func newTestRouter(t *testing.T, f *fixture) http.Handler {
	t.Helper()

	authenticate := middleware.Authenticate(f.service, audit.Discard{})
	authHandler := auth.NewHandler(f.service, authenticate)
	adminHandler := auth.NewAdminHandler(f.service,
		authenticate,
		middleware.RequireRole(sec.RoleAdmin),
	)

	router := chi.NewRouter()
	router.Mount("/api/v1/auth", authHandler.Routes())
	router.Mount("/api/v1/admin", adminHandler.Routes())
	return router
}

func postJSON(handler http.Handler, target, token string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	request := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

type authResponse struct {
	Data struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			TokenType    string `json:"token_type"`
		} `json:"tokens"`
		Notice string `json:"notice"`
	} `json:"data"`
}

/*
TestHTTP_RegisterLoginMe walks the happy path through the real router:
register, login, authenticated profile fetch, logout.
*/
func TestHTTP_RegisterLoginMe(t *testing.T) {
	f := newFixture(t, false)
	router := newTestRouter(t, f)

	// 1. Register.
	recorder := postJSON(router, "/api/v1/auth/register", "", map[string]string{
		"email":      "ada@club.test",
		"password":   "hunter2-secret",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var registered authResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &registered))
	assert.Equal(t, "student", registered.Data.User.Role)
	assert.Equal(t, "Bearer", registered.Data.Tokens.TokenType)

	// 2. Login.
	recorder = postJSON(router, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@club.test",
		"password": "hunter2-secret",
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var loggedIn authResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &loggedIn))
	accessToken := loggedIn.Data.Tokens.AccessToken
	require.NotEmpty(t, accessToken)

	// 3. Authenticated profile fetch.
	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+accessToken)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, request)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "ada@club.test")

	// 4. Anonymous profile fetch is rejected.
	anon := httptest.NewRecorder()
	router.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, anon.Code)

	// 5. Logout, then the access token is dead.
	recorder = postJSON(router, "/api/v1/auth/logout", accessToken, nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	dead := httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+accessToken)
	router.ServeHTTP(dead, request)
	assert.Equal(t, http.StatusUnauthorized, dead.Code)
}

/*
TestHTTP_RegisterValidation verifies the 400 path for weak input.
*/
func TestHTTP_RegisterValidation(t *testing.T) {
	f := newFixture(t, false)
	router := newTestRouter(t, f)

	recorder := postJSON(router, "/api/v1/auth/register", "", map[string]string{
		"email":      "not-an-email",
		"password":   "short",
		"first_name": "",
		"last_name":  "Lovelace",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
}

/*
TestHTTP_RefreshRotation verifies the JSON-body refresh endpoint and the
single-use property over HTTP.
*/
func TestHTTP_RefreshRotation(t *testing.T) {
	f := newFixture(t, false)
	router := newTestRouter(t, f)
	registered := f.register(t, "ada@club.test", "")

	recorder := postJSON(router, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	// Replay of the consumed token.
	recorder = postJSON(router, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": registered.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Missing body field.
	recorder = postJSON(router, "/api/v1/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

/*
TestHTTP_AdminGuard verifies that the admin surface stacks authentication
with the role requirement.
*/
func TestHTTP_AdminGuard(t *testing.T) {
	f := newFixture(t, false)
	router := newTestRouter(t, f)

	student := f.register(t, "ada@club.test", "")

	// Promote a second account to admin directly through the repository,
	// then log in to pick up the new snapshot.
	admin := f.register(t, "root@club.test", "")
	require.NoError(t, f.users.UpdateRole(context.Background(), admin.User.ID, sec.RoleAdmin, sec.DefaultPermissions(sec.RoleAdmin)))

	adminLogin, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "root@club.test",
		Password: "hunter2-secret",
	})
	require.NoError(t, err)

	payload := map[string]any{"email": "grace@club.test", "roles": []string{"mentor"}}

	t.Run("anonymous gets 401", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("student gets 403", func(t *testing.T) {
		body, _ := json.Marshal(payload)
		request := httptest.NewRequest(http.MethodPut, "/api/v1/admin/approvals", bytes.NewReader(body))
		request.Header.Set("Authorization", "Bearer "+student.Tokens.AccessToken)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		body, _ := json.Marshal(payload)
		request := httptest.NewRequest(http.MethodPut, "/api/v1/admin/approvals", bytes.NewReader(body))
		request.Header.Set("Authorization", "Bearer "+adminLogin.Tokens.AccessToken)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		// The registry now grants mentor at registration.
		granted := f.register(t, "grace@club.test", "mentor")
		assert.Equal(t, sec.RoleMentor, granted.User.Role)
	})

	t.Run("admin lists users with pagination envelope", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users?page=1&limit=10", nil)
		request.Header.Set("Authorization", "Bearer "+adminLogin.Tokens.AccessToken)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"meta"`)
		assert.Contains(t, recorder.Body.String(), `"total"`)
	})
}
