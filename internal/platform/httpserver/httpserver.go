// Package httpserver builds the gateway's HTTP server with bounded timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server whose timeouts suit this service's traffic: short
// header/read windows for the small JSON and tracking requests it serves,
// and a write window generous enough for a send that waits on the
// generation and delivery providers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
