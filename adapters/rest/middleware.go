package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"task-tracker/pkg/res"
)

const RequestIDHeader = "X-Request-ID"

// guardWriter lets only the first response through.
type guardWriter struct {
	http.ResponseWriter
	log    *slog.Logger
	status int
}

func (g *guardWriter) WriteHeader(code int) {
	if g.status != 0 {
		g.log.Warn("response already sent", "status", g.status, "dropped", code)
		return
	}
	g.status = code
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardWriter) Write(b []byte) (int, error) {
	if g.status == 0 {
		g.WriteHeader(http.StatusOK)
	}
	return g.ResponseWriter.Write(b)
}

func (g *guardWriter) Sent() bool {
	return g.status != 0
}

// Middleware wraps every request: request id, single-response guard, panic
// recovery, body size limit and an access log line.
func Middleware(log *slog.Logger, maxBodyBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		reqLog := log.With("request_id", id)

		gw := &guardWriter{ResponseWriter: w, log: reqLog}

		defer func() {
			if p := recover(); p != nil {
				reqLog.Error("panic while serving request", "method", r.Method, "path", r.URL.Path, "panic", p)
				if !gw.Sent() {
					res.Error(gw, internalError, http.StatusInternalServerError)
				}
			}
			reqLog.Debug("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", gw.status,
				"duration", time.Since(start),
			)
		}()

		if maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(gw, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(gw, r)
	})
}
