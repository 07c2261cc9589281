package server

import (
	"net/http"
	"time"

	"github.com/kjk/board/log"
)

// capturingResponseWriter remembers status code and response size for
// the http log
type capturingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
}

func (w *capturingResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *capturingResponseWriter) Write(d []byte) (int, error) {
	w.size += int64(len(d))
	return w.ResponseWriter.Write(d)
}

func logRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &capturingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		timeStart := time.Now()
		h.ServeHTTP(cw, r)
		dur := time.Since(timeStart)
		err := log.HTTPRequest(r, cw.statusCode, cw.size, dur)
		log.IfErrf(err, "logging http request failed: %s", err)
	})
}
