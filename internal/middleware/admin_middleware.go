package middleware

import (
	"net/http"

	"adgate-server/pkg/hash"
	"adgate-server/pkg/response"

	"github.com/sirupsen/logrus"
)

const adminKeyHeader = "X-Admin-Key"

// AdminKeyMiddleware gates the internal endpoints behind a pre-shared key.
// The configuration holds only the bcrypt hash of the key. With no hash
// configured the endpoints are disabled entirely.
func AdminKeyMiddleware(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				response.Error(w, http.StatusServiceUnavailable, "Admin endpoints are not configured.")
				return
			}

			key := r.Header.Get(adminKeyHeader)
			if key == "" {
				response.Unauthorized(w, "Missing admin key.")
				return
			}

			if err := hash.Compare(keyHash, key); err != nil {
				logrus.WithField("remote", r.RemoteAddr).Warn("Rejected admin request with bad key")
				response.Forbidden(w, "Invalid admin key.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
