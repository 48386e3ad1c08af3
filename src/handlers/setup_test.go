package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/username/subtrack/backend/src/config"
	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/security"
)

// setupTestEnv wires a unique in-memory database per test name and returns a
// UserHandler for building authenticated routes. CSRF is exercised separately;
// these muxes run auth only.
func setupTestEnv(t *testing.T) *UserHandler {
	t.Helper()
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{
		JWTSecret:          "unit-test-secret-0123456789abcdef012345",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		MaxUploadSizeBytes: 4 << 20,
	}
	database.InitDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	t.Cleanup(func() { database.DB.Close() })

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	return NewUserHandler(authService)
}

func doJSON(t *testing.T, mux http.Handler, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	return resp
}

func decodeJSON(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), out))
}

// registerAndLogin creates a user through the public handlers and returns a
// valid access token.
func registerAndLogin(t *testing.T, userHandler *UserHandler, email string) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("POST /api/auth/login", userHandler.LoginUserHandler)

	resp := doJSON(t, mux, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "correct-horse-battery",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = doJSON(t, mux, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var loginResponse struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &loginResponse)
	require.NotEmpty(t, loginResponse.AccessToken)
	return loginResponse.AccessToken
}
