package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID ensures every request carries an X-Request-ID header, both
// on the request (for error envelopes) and on the response (for client
// side correlation). Incoming IDs from trusted proxies are preserved.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
			r.Header.Set("X-Request-ID", requestID)
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}
