package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/mcoot/territorybattle/internal/api/apierr"
)

// RateLimitWrites limits POST requests to perMinute per client IP.
// Reads are never limited; perMinute <= 0 disables limiting.
func RateLimitWrites(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			apierr.WriteError(w, apierr.NewRateLimitedError())
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
