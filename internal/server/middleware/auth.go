// Package middleware provides HTTP middleware for the admin API.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// requestIDKey is the context key for the per-request correlation id.
const requestIDKey ContextKey = "requestID"

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "X-API-Key"

// RequestIDHeader echoes the correlation id back to the caller.
const RequestIDHeader = "X-Request-ID"

// APIKey rejects requests whose X-API-Key header does not equal key. An empty
// key disables the check. Paths listed in open are always allowed.
func APIKey(key string, open ...string) func(http.Handler) http.Handler {
	exempt := make(map[string]bool, len(open))
	for _, p := range open {
		exempt[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(APIKeyHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID assigns every request a correlation id, reusing a caller-supplied
// X-Request-ID when it parses as a UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		if err != nil {
			id = uuid.New()
		}
		w.Header().Set(RequestIDHeader, id.String())
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the correlation id set by RequestID, or uuid.Nil.
func GetRequestID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(requestIDKey).(uuid.UUID)
	return id
}
