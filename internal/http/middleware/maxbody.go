// Package middleware holds chi-compatible HTTP middleware for the
// dispatcher API.
package middleware

import "net/http"

// MaxBodyBytes caps request body size at limit: a read past the limit fails
// with an *http.MaxBytesError, which the handler's decoder surfaces as a
// decode error.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
