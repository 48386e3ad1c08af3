package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/utils"
)

const csrfCookieName = "_csrf_token"

// GetCSRFToken issues a fresh CSRF token as both a cookie and a response
// field. Clients echo it back in the X-CSRF-Token header on mutating
// requests; CSRFMiddleware compares header and cookie.
func GetCSRFToken(authKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := generateCSRFToken(authKey)
		if err != nil {
			logger.L.Error("Failed to generate CSRF token", "error", err)
			utils.SendJSONError(w, "Failed to generate CSRF token", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     csrfCookieName,
			Value:    token,
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
			HttpOnly: true,
			Secure:   false, // behind TLS termination in production
			MaxAge:   3600,
		})

		w.Header().Set("X-CSRF-Token", token)
		utils.SendJSON(w, http.StatusOK, map[string]string{
			"csrfToken": token,
		})
	}
}

// CSRFMiddleware enforces the double-submit cookie scheme: mutating requests
// must carry matching, validly signed tokens in the X-CSRF-Token header and
// the CSRF cookie. Safe methods pass through.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken != "" && err == nil &&
				hmac.Equal([]byte(headerToken), []byte(cookie.Value)) &&
				validCSRFToken(authKey, headerToken) {
				next.ServeHTTP(w, r)
				return
			}

			logger.L.Warn("CSRF validation failed", "method", r.Method, "path", r.URL.Path)
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}

// generateCSRFToken returns base64url(nonce) + "." + base64url(HMAC(nonce)).
func generateCSRFToken(authKey []byte) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, authKey)
	mac.Write(nonce)
	return base64.RawURLEncoding.EncodeToString(nonce) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func validCSRFToken(authKey []byte, token string) bool {
	dot := -1
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			dot = i
			break
		}
	}
	if dot <= 0 || dot == len(token)-1 {
		return false
	}
	nonce, err := base64.RawURLEncoding.DecodeString(token[:dot])
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(token[dot+1:])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, authKey)
	mac.Write(nonce)
	return hmac.Equal(sig, mac.Sum(nil))
}
