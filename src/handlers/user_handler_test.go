package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRoutes(userHandler *UserHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("POST /api/auth/login", userHandler.LoginUserHandler)
	mux.HandleFunc("POST /api/auth/refresh", userHandler.RefreshTokenHandler)
	mux.Handle("POST /api/auth/logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))
	mux.Handle("GET /api/protected", userHandler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	return mux
}

func TestRegisterIssuesSessionImmediately(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := authRoutes(userHandler)

	resp := doJSON(t, mux, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "fresh@example.com", "password": "long-enough-pass", "name": "Fresh",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var registered struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	decodeJSON(t, resp, &registered)
	require.NotEmpty(t, registered.AccessToken)
	require.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "fresh@example.com", registered.User.Email)
	assert.Equal(t, "Fresh", registered.User.Name)

	// the token works without a separate login round trip
	resp = doJSON(t, mux, http.MethodGet, "/api/protected", registered.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := authRoutes(userHandler)

	payload := map[string]string{"email": "dup@example.com", "password": "long-enough-pass", "name": "A"}
	resp := doJSON(t, mux, http.MethodPost, "/api/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = doJSON(t, mux, http.MethodPost, "/api/auth/register", "", payload)
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
}

func TestRegisterValidatesInput(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := authRoutes(userHandler)

	resp := doJSON(t, mux, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "no-at-sign", "password": "long-enough-pass",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(t, mux, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "short@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := authRoutes(userHandler)
	registerAndLogin(t, userHandler, "user@example.com")

	resp := doJSON(t, mux, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user@example.com", "password": "wrong-password!!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthMiddlewareGuardsRoutes(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := authRoutes(userHandler)

	resp := doJSON(t, mux, http.MethodGet, "/api/protected", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, mux, http.MethodGet, "/api/protected", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	token := registerAndLogin(t, userHandler, "auth@example.com")
	resp = doJSON(t, mux, http.MethodGet, "/api/protected", token, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRefreshRotatesSession(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := authRoutes(userHandler)

	resp := doJSON(t, mux, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "rotate@example.com", "password": "long-enough-pass",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = doJSON(t, mux, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "rotate@example.com", "password": "long-enough-pass",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeJSON(t, resp, &login)

	resp = doJSON(t, mux, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var refreshed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeJSON(t, resp, &refreshed)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the old session is gone, so the old access token no longer works
	resp = doJSON(t, mux, http.MethodGet, "/api/protected", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// reusing the old refresh token fails too
	resp = doJSON(t, mux, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	userHandler := setupTestEnv(t)
	mux := authRoutes(userHandler)
	token := registerAndLogin(t, userHandler, "bye@example.com")

	resp := doJSON(t, mux, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = doJSON(t, mux, http.MethodGet, "/api/protected", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
