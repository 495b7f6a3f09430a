package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/heimdex/heimdex-editor/internal/api"
	"github.com/heimdex/heimdex-editor/internal/catalog"
	"github.com/heimdex/heimdex-editor/internal/config"
	"github.com/heimdex/heimdex-editor/internal/db"
	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/generate"
	"github.com/heimdex/heimdex-editor/internal/gui"
	"github.com/heimdex/heimdex-editor/internal/importer"
	"github.com/heimdex/heimdex-editor/internal/logging"
	"github.com/heimdex/heimdex-editor/internal/media"
	"github.com/heimdex/heimdex-editor/internal/ui"
)

const generateSettingsFile = "generate.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir(), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting heimdex editor", "version", config.Version, "data_dir", cfg.DataDir(), "ui", cfg.UI())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                 HEIMDEX EDITOR v%-26s║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	prober := media.NewFFprobe(cfg.FFprobePath(), logging.WithComponent(logger, "media"))
	pool := media.NewPool(prober, repo, logging.WithComponent(logger, "media"))
	ed := editor.New(pool, logging.WithComponent(logger, "editor"))

	engine := importer.NewEngine(pool, logging.WithComponent(logger, "importer"))
	imp := importer.New(ed, engine, logging.WithComponent(logger, "importer"), importer.WithRecorder(repo))

	backend, doctor, settings := setupGeneration(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srvCfg := api.ServerConfig{
		Port:       cfg.Port(),
		Editor:     ed,
		Importer:   imp,
		Repository: repo,
		Backend:    backend,
		Doctor:     doctor,
		Settings:   settings,
		Logger:     logging.WithComponent(logger, "api"),
		StartTime:  startTime,
		Version:    config.Version,
	}
	apiServer := api.NewServer(srvCfg)

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	if doctor != nil {
		go func() {
			probeCtx, probeCancel := context.WithTimeout(ctx, cfg.BackendTimeoutDoctor())
			defer probeCancel()
			caps, err := doctor.Refresh(probeCtx)
			if err != nil {
				logger.Warn("initial doctor probe failed", "error", err)
				return
			}
			logger.Info("generation backend detected",
				"can_generate", caps.CanGenerate,
				"models", len(caps.Models),
				"deps", fmt.Sprintf("%d/%d", caps.Summary.Available, caps.Summary.Total),
			)
		}()
	}

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.UI() {
	case config.UIWindow:
		win := gui.New(ctx, gui.Config{
			Editor:   ed,
			Importer: imp,
			Logger:   logging.WithComponent(logger, "gui"),
			Version:  config.Version,
			Icon:     ui.Icon(),
			OnQuit:   quit,
		})
		go importArgs(ctx, imp, os.Args[1:], logger)
		go waitForSignal(sigCh, quitCh, logger, func() { quit(); win.Quit() })
		win.Run()
		quit()
	case config.UITray:
		tray := ui.NewTray(ui.TrayConfig{
			Editor: ed,
			Logger: logging.WithComponent(logger, "tray"),
			OnQuit: quit,
		})
		go importArgs(ctx, imp, os.Args[1:], logger)
		go waitForSignal(sigCh, quitCh, logger, func() { quit(); tray.Quit() })
		tray.Run()
		quit()
	default:
		logger.Info("running without a front end")
		go importArgs(ctx, imp, os.Args[1:], logger)
		go waitForSignal(sigCh, quitCh, logger, quit)
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// setupGeneration builds the generation backend. Without a usable Python
// the editor runs with generation disabled; the settings store is still
// returned so settings can be prepared ahead of installing the backend.
func setupGeneration(cfg config.Config, logger *slog.Logger) (generate.Backend, *generate.CachedDoctor, *generate.SettingsStore) {
	settings := generate.NewSettingsStore(filepath.Join(cfg.DataDir(), generateSettingsFile))

	genCfg := generate.DefaultConfig(cfg.OutputDir(), logging.WithComponent(logger, "generate"))
	genCfg.PythonPath = cfg.BackendPython()
	genCfg.ModuleName = cfg.BackendModule()
	genCfg.DoctorTimeout = cfg.BackendTimeoutDoctor()
	genCfg.GenerateTimeout = cfg.BackendTimeoutGenerate()

	backend, err := generate.NewBackend(genCfg, settings)
	if err != nil {
		logger.Warn("generation backend unavailable, AI clips disabled", "error", err)
		return nil, nil, settings
	}
	return backend, generate.NewCachedDoctor(backend, logger), settings
}

// importArgs imports project files named on the command line, in order.
func importArgs(ctx context.Context, imp *importer.Importer, args []string, logger *slog.Logger) {
	for _, path := range args {
		if _, err := imp.Run(ctx, path); err != nil {
			logger.Warn("startup import failed", "path", logging.SanitizePath(path), "error", err)
		}
	}
}

func waitForSignal(sigCh <-chan os.Signal, quitCh <-chan struct{}, logger *slog.Logger, stop func()) {
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		stop()
	case <-quitCh:
	}
}

func ensureAuthToken(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
