package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
)

type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

// NewServer wraps the router in access logging and bounds every
// connection with read/write/idle timeouts.
func NewServer(addr string, log *slog.Logger, router http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(os.Stdout, router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

func (s *Server) Start() error {
	s.Log.Info("http server starting", "addr", s.HTTP.Addr)
	return s.HTTP.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
