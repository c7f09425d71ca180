package middleware

import (
	"log/slog"
	"net/http"

	"github.com/revisehq/revise-api/internal/api/shared"
)

// TraceMiddleware stamps each request with a trace ID before any
// handler runs. Error responses echo the ID so a user report can be
// matched to the server logs for the same request.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
