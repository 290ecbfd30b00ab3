package server

import (
	"net/http"
	"time"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func (w *loggingResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *loggingResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// withRequestLogging logs and counts every request except health checks.
// The route label is the matched mux pattern, so path ids never become labels.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		route := r.Pattern
		observeRequest(route, rw.Status(), elapsed)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.Status(),
			"duration_ms", elapsed.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		if route != "" {
			fields = append(fields, "route", route)
		}

		if rw.Status() >= 500 {
			s.log().Error("request complete", fields...)
			return
		}
		s.log().Debug("request complete", fields...)
	})
}
