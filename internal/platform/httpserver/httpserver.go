package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. Write timeout
// leaves room for a verification call bounded by verificationTimeout.
func New(addr string, handler http.Handler, verificationTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      verificationTimeout + 15*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
