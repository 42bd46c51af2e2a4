package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/craftkart/storefront-api/internal/domain/auth"
)

// APIKeyMiddleware authenticates requests via HMAC-SHA256 hashed API keys
// carried in the api_key header.
type APIKeyMiddleware struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewAPIKeyMiddleware creates the middleware with the given API key
// repository and HMAC pepper.
func NewAPIKeyMiddleware(apikeys auth.Repository, pepper []byte) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Require wraps next, rejecting requests without a valid API key. The lookup
// is by HMAC of the presented key, followed by a constant-time comparison
// against the stored hash to guard against timing side-channels when the
// repository returns a stale or wrong row.
func (m *APIKeyMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			respondError(w, http.StatusUnauthorized, "api key required")
			return
		}

		mac := hmac.New(sha256.New, m.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := m.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
