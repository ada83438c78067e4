package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second

	// Snapshot export streams the whole event log in one response, so the
	// write timeout must outlive the per-route handler timeouts.
	writeTimeout = 2 * time.Minute
	idleTimeout  = 2 * time.Minute
)

// New builds the monitoring API server. Per-route deadlines come from the
// chi timeout middleware; these are the outer connection limits.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
