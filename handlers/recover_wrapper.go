package handlers

import (
	"log/slog"
	"net/http"
	"runtime"
)

// RecoverWrapper turns a panic in next into a logged 500 response.
func RecoverWrapper(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stack := make([]byte, 8*1024)
					stack = stack[:runtime.Stack(stack, false)]
					logger.Error("panic recovered",
						"method", r.Method, "path", r.URL.Path, "panic", rec, "stack", string(stack))
					writeJSON(w, http.StatusInternalServerError, ApiResponse{Success: false, Message: "internal server error"})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
