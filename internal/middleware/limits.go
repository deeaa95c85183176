package middleware

import "net/http"

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize bounds JSON API request bodies.
	DefaultMaxBodySize = 1 * MB

	// WebhookMaxBodySize bounds provider webhook deliveries.
	WebhookMaxBodySize = 64 * KB
)

// MaxBodySize limits the size of request bodies. Requests that declare a
// larger Content-Length are rejected with 413 up front; others are cut off
// by http.MaxBytesReader while the handler reads.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondTooLarge(w, r)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
