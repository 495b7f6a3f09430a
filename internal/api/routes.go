package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/importer"
)

const defaultImportsLimit = 50

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(LoopbackGuard())
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Post("/imports", importHandler(cfg))
		r.Get("/imports", listImportsHandler(cfg))
		r.Get("/imports/{id}", getImportHandler(cfg))
		r.Get("/timeline", timelineHandler(cfg))
		r.Post("/timeline/undo", undoHandler(cfg))
		r.Post("/timeline/redo", redoHandler(cfg))
		r.Post("/project/new", newProjectHandler(cfg))
		r.Post("/project/save", saveProjectHandler(cfg))
		r.Post("/project/open", openProjectHandler(cfg))
		r.Get("/media", listMediaHandler(cfg))
		r.Get("/media/file", mediaFileHandler(cfg))
		r.Head("/media/file", mediaFileHandler(cfg))
		r.Post("/export/edl", exportEDLHandler(cfg))
		r.Post("/generate", generateHandler(cfg))
		r.Get("/generate/settings", getSettingsHandler(cfg))
		r.Put("/generate/settings", putSettingsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed := cfg.Editor
		resp := StatusResponse{
			State:       "idle",
			Message:     ed.Status(),
			ProjectPath: ed.ProjectPath(),
			ClipCount:   ed.ClipCount(),
			MediaCount:  ed.Pool().Len(),
			DurationMs:  ed.TotalDurationMs(),
			CanUndo:     ed.CanUndo(),
			CanRedo:     ed.CanRedo(),
		}

		imports, err := cfg.Repository.ListImports(r.Context(), 1)
		if err == nil && len(imports) > 0 {
			last := ImportToResponse(imports[0])
			resp.LastImport = &last
			switch last.Status {
			case "running":
				resp.State = "importing"
			case "failed":
				resp.State = "error"
			}
		}

		// Peek only: a status poll must not start a Python process.
		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Generation = &GenerationStatusResponse{
					CanGenerate: caps.CanGenerate,
					Models:      caps.Models,
					DepsAvail:   caps.Summary.Available,
					DepsTotal:   caps.Summary.Total,
				}
				if !caps.ProbedAt.IsZero() {
					resp.Generation.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// requestHost answers the importer's confirmation with the caller's
// confirm flag and keeps warnings out of the desktop front end; the
// response carries them instead.
type requestHost struct {
	*editor.Editor
	confirm bool
	logger  *slog.Logger
}

func (h requestHost) Confirm(title, message string) bool {
	return h.confirm
}

func (h requestHost) Warn(title, message string) {
	if h.logger != nil {
		h.logger.Warn(title, "message", message)
	}
}

func importHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		imp := cfg.Importer.WithHost(requestHost{Editor: cfg.Editor, confirm: req.Confirm, logger: cfg.Logger})
		out, err := imp.Run(r.Context(), req.Path)
		switch {
		case err == nil:
			WriteJSON(w, http.StatusOK, OutcomeToResponse(out))
		case errors.Is(err, importer.ErrCancelled):
			WriteError(w, http.StatusConflict, "project has content; set confirm to replace it", "CONFIRM_REQUIRED")
		case errors.Is(err, importer.ErrUnreadable):
			WriteError(w, http.StatusBadRequest, err.Error(), "UNREADABLE_PROJECT")
		case errors.Is(err, importer.ErrNothingToImport):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NOTHING_TO_IMPORT")
		default:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		}
	}
}

func listImportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultImportsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		recs, err := cfg.Repository.ListImports(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list imports", "INTERNAL_ERROR")
			return
		}

		resp := ImportsResponse{Imports: make([]ImportResponse, len(recs))}
		for i, rec := range recs {
			resp.Imports[i] = ImportToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getImportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, err := cfg.Repository.GetImport(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if rec == nil {
			WriteError(w, http.StatusNotFound, "import not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ImportToResponse(rec))
	}
}

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := cfg.Editor.Pool().Entries()
		resp := MediaListResponse{Media: make([]MediaResponse, len(entries))}
		for i, e := range entries {
			resp.Media[i] = MediaToResponse(e)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
