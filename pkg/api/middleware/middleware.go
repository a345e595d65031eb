package middleware

import (
	"net/http"
	"time"

	"github.com/hearthvm/hearth/pkg/log"
)

// NewLoggingMiddleware logs each request with its duration at debug level.
func NewLoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("%s %s took %s", r.Method, r.URL.Path, time.Since(start))
		})
	}
}
