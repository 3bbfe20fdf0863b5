// Package auth guards the simulator's HTTP API with a shared bearer token.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const PasskeySize = 32

// digestLabel keys the HMAC used to compare tokens in constant time
// independent of their lengths.
var digestLabel = []byte("ledwall-http-token")

// GeneratePasskey returns a cryptographically random 32-byte passkey.
func GeneratePasskey() ([]byte, error) {
	key := make([]byte, PasskeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateToken returns a fresh passkey hex-encoded for use as a bearer
// token.
func GenerateToken() (string, error) {
	key, err := GeneratePasskey()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

func digest(token string) [32]byte {
	mac := hmac.New(sha256.New, digestLabel)
	mac.Write([]byte(token))
	var sum [32]byte
	copy(sum[:], mac.Sum(nil))
	return sum
}

// VerifyToken reports whether presented matches expected. An empty
// presented token never verifies.
func VerifyToken(expected, presented string) bool {
	if presented == "" {
		return false
	}
	want, got := digest(expected), digest(presented)
	return hmac.Equal(want[:], got[:])
}

// BearerToken extracts the token from an "Authorization: Bearer" header,
// falling back to the access_token query parameter (browsers cannot set
// headers on WebSocket upgrades).
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// Header returns request headers carrying token, or nil if token is empty.
func Header(token string) http.Header {
	if token == "" {
		return nil
	}
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h
}

// Middleware rejects requests without a matching bearer token. An empty
// token disables the check.
func Middleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !VerifyToken(token, BearerToken(r)) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="ledwall"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
