package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Guard wraps an AJAX handler so that any panic is converted into an error
// envelope instead of propagating as a protocol-level failure.
func Guard(logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if logger != nil {
					logger.Error("ajax handler panic",
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec))
				}
				Error(w, fmt.Sprintf("unexpected error handling %s", r.URL.Path))
			}
		}()
		next(w, r)
	}
}
