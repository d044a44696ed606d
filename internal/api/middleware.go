package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vytor/boxhunt/internal/errors"
	"github.com/vytor/boxhunt/internal/logger"
)

// requestLogger puts a request-scoped logger in the context and logs one line
// per request. It runs after middleware.RequestID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := middleware.GetReqID(r.Context())
		w.Header().Set("X-Request-ID", id)

		log := logger.Default().WithFields(map[string]any{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		// The wrapper keeps http.Hijacker, which the event stream needs.
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logger.NewContext(r.Context(), log)))

		log = log.WithFields(map[string]any{"status": ww.Status(), "duration_ms": time.Since(start).Milliseconds()})
		switch status := ww.Status(); {
		case status >= 500:
			log.Error("request failed")
		case status >= 400:
			log.Warn("request rejected")
		default:
			log.Debug("request served")
		}
	})
}

// recoverJSON turns a handler panic into the usual JSON error body.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context()).Error("panic recovered: %v", rec)
				handleError(w, r, errors.NewInternalError(fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func noSniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}
