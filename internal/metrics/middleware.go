package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

var numericSegment = regexp.MustCompile(`/(\d+)`)

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware records request count and latency by method, route and status code.
// A panic in next is recorded as a 500 and recovered.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		defer func() {
			panicked := recover() != nil
			if panicked && !recorder.written {
				recorder.WriteHeader(http.StatusInternalServerError)
			}
			if panicked {
				recorder.statusCode = http.StatusInternalServerError
			}

			status := strconv.Itoa(recorder.statusCode)
			path := routeLabel(r)
			RecordRequest(r.Method, path, status)
			RecordRequestDuration(r.Method, path, status, time.Since(start).Seconds())
		}()

		next.ServeHTTP(recorder, r)
	})
}

// routeLabel prefers the matched chi route pattern and falls back to the
// request path with numeric segments replaced.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces numeric path segments to bound label cardinality.
//
//	/api/clients/123 -> /api/clients/:id
func normalizePath(path string) string {
	return numericSegment.ReplaceAllString(path, "/:id")
}
