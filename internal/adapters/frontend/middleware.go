package frontend

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/email-vetter/internal/metrics"
	"go.uber.org/zap"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request ID assigned by the middleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// requestIDMiddleware tags every request with an ID, reusing one supplied
// by the client
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// loggingMiddleware logs each request with its status and latency
func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			logger.Info("Handled request",
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", wrapper.statusCode),
				zap.Duration("took", time.Since(start)))
		})
	}
}

// recoverMiddleware maps a panic in a handler onto a generic 500 response
func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					metrics.RecordPanic()
					logger.Error("Recovered from panic in handler",
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.Any("panic", rec))
					writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware provides configurable CORS support
type CORSMiddleware struct {
	allowAll bool
	origins  map[string]struct{}
}

// NewCORSMiddleware creates a new CORS middleware. An empty list or a "*"
// entry allows every origin.
func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	cm := &CORSMiddleware{origins: make(map[string]struct{})}
	if len(allowedOrigins) == 0 {
		cm.allowAll = true
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cm.allowAll = true
		}
		cm.origins[origin] = struct{}{}
	}
	return cm
}

// Handler returns the CORS middleware handler
func (cm *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		switch {
		case cm.allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		default:
			origin := r.Header.Get("Origin")
			if _, ok := cm.origins[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		next.ServeHTTP(w, r)
	})
}
