package api

import (
	"net/http"
	"time"
)

// Routes builds the API mux. Every route shares the limiter.
func Routes(h *Handler, limiter *RateLimiter) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RateLimitMiddleware(limiter, fn))
	}

	handle("GET /api/status", h.Status)
	handle("GET /api/areas", h.Areas)
	handle("GET /api/history", h.History)
	handle("POST /api/stats", h.Stats)
	handle("POST /api/analysis", h.Analysis)
	handle("POST /api/affordability", h.Affordability)

	return LoggingMiddleware(mux)
}

// NewServer returns an http.Server with the timeouts used in production.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
