package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/territorybattle/internal/api/apierr"
	"github.com/mcoot/territorybattle/internal/middleware"
)

// Recovery answers a panicking handler with the JSON 500 envelope
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
