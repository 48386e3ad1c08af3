package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/subtrack/backend/src/logger"
)

var csrfTestKey = []byte("0123456789abcdef0123456789abcdef")

func TestGetCSRFTokenSetsCookieAndHeader(t *testing.T) {
	logger.InitLogger("error")
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil)
	GetCSRFToken(csrfTestKey)(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	token := resp.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	assert.True(t, validCSRFToken(csrfTestKey, token))

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, csrfCookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
}

func TestCSRFMiddleware(t *testing.T) {
	logger.InitLogger("error")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := CSRFMiddleware(csrfTestKey)(ok)

	token, err := generateCSRFToken(csrfTestKey)
	require.NoError(t, err)

	// GET passes without a token
	resp := httptest.NewRecorder()
	protected.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/wallets", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	// POST without a token is rejected
	resp = httptest.NewRecorder()
	protected.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/wallets", nil))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// matching header and cookie pass
	req := httptest.NewRequest(http.MethodPost, "/api/wallets", nil)
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	resp = httptest.NewRecorder()
	protected.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)

	// mismatched tokens fail
	other, err := generateCSRFToken(csrfTestKey)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/wallets", nil)
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: other})
	resp = httptest.NewRecorder()
	protected.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// a token signed with a different key fails even when header and cookie match
	forged, err := generateCSRFToken([]byte("another-key-another-key-another!"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/wallets", nil)
	req.Header.Set("X-CSRF-Token", forged)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: forged})
	resp = httptest.NewRecorder()
	protected.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestValidCSRFTokenRejectsMalformed(t *testing.T) {
	assert.False(t, validCSRFToken(csrfTestKey, ""))
	assert.False(t, validCSRFToken(csrfTestKey, "no-dot"))
	assert.False(t, validCSRFToken(csrfTestKey, ".leading"))
	assert.False(t, validCSRFToken(csrfTestKey, "trailing."))
	assert.False(t, validCSRFToken(csrfTestKey, strings.Repeat("!", 10)+"."+strings.Repeat("!", 10)))
}
