// http.go builds the *http.Server backing Server's /metrics and /healthz
// endpoints. This process otherwise talks BLE, not HTTP, so the server only
// needs to survive a slow scrape client, not high concurrency.
package metrics

import (
	"net/http"
	"time"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	metricsReadTimeout       = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 120 * time.Second
)

// newHTTPServer builds the server used by Server.ListenAndServe, with
// timeouts tuned for an occasional Prometheus scrape rather than a busy API.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		ReadTimeout:       metricsReadTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}
}
