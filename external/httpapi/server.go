// Package httpapi is the collaborator-facing HTTP surface of the relay:
// translation, uploads, deletions, history, metrics, static assets and the
// websocket endpoint.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airchat/globaltalk/internal/config"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.Config, h *Handlers, wsHandler http.Handler) *Server {
	router := chi.NewRouter()
	router.Use(RequestLogger)
	router.Use(Recover)

	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/ws", wsHandler)
	router.Post("/translate", h.Translate)
	router.Post("/upload-multiple", h.UploadMultiple)
	router.Delete("/file/{fileID}", h.DeleteFile)
	router.Delete("/api/message/{messageID}", h.DeleteMessage)
	router.Get("/api/message-history", h.MessageHistory)

	router.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	if cfg.StaticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // websocket connections are long-lived
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("http server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
