package middleware

import (
	"crypto/subtle"
	"net/http"
)

const SyncSecretHeader = "X-Sync-Secret"

// SyncSecretMiddleware guards the internal sync endpoints with a shared
// secret. An empty secret rejects everything.
func SyncSecretMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(SyncSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				respondWithError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
