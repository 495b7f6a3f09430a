// Package api serves the editor's local HTTP interface: import, timeline,
// project, export and generation endpoints for scripts and companion tools.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heimdex/heimdex-editor/internal/catalog"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/generate"
	"github.com/heimdex/heimdex-editor/internal/importer"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerConfig wires the handlers. Backend, Doctor and Settings may be nil
// when no generation backend is installed.
type ServerConfig struct {
	Port       int
	Editor     *editor.Editor
	Importer   *importer.Importer
	Repository catalog.Repository
	Backend    generate.Backend
	Doctor     *generate.CachedDoctor
	Settings   *generate.SettingsStore
	Logger     *slog.Logger
	StartTime  time.Time
	Version    string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // generation requests run for minutes
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
