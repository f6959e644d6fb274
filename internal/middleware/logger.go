package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// WithRequestLogger stores a request-scoped child of base in the request
// context, tagged with method, path and request id. Place it after RequestID.
// Downstream code retrieves it with zerolog.Ctx or GetLogger.
func WithRequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lc := base.With().
				Str("method", r.Method).
				Str("path", r.URL.Path)

			if requestID := GetRequestID(r.Context()); requestID != "" {
				lc = lc.Str("request_id", requestID)
			}
			if ip := GetClientIPFromContext(r.Context()); ip != "" {
				lc = lc.Str("client_ip", ip)
			}

			requestLogger := lc.Logger()
			next.ServeHTTP(w, r.WithContext(requestLogger.WithContext(r.Context())))
		})
	}
}

// GetLogger retrieves the request-scoped logger from the context. Without
// one it returns fallback when given, else a disabled logger.
func GetLogger(ctx context.Context, fallback ...*zerolog.Logger) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() != zerolog.Disabled {
		return l
	}
	if len(fallback) > 0 && fallback[0] != nil {
		return fallback[0]
	}
	return l
}

// AccessLog logs one line per request with status and duration. Server
// errors log at error level, client errors at warn.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log := GetLogger(r.Context())
		var ev *zerolog.Event
		switch {
		case wrapped.statusCode >= 500:
			ev = log.Error()
		case wrapped.statusCode >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev.Int("status", wrapped.statusCode).
			Int("bytes", wrapped.bytesWritten).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	wroteHeader  bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
