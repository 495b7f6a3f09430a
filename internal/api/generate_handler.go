package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/generate"
)

func generateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Backend == nil {
			WriteError(w, http.StatusServiceUnavailable, "generation backend not configured", "BACKEND_UNAVAILABLE")
			return
		}

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.StartMs < 0 || req.EndMs <= req.StartMs {
			WriteError(w, http.StatusBadRequest, "start_ms must be less than end_ms", "BAD_REQUEST")
			return
		}
		if req.DurationMs == 0 {
			req.DurationMs = req.EndMs - req.StartMs
		}

		cfg.Editor.SetStatus("Generating AI clip...")
		res, err := cfg.Backend.Generate(r.Context(), req.Request)
		if err == nil && len(res.Files) == 0 {
			err = generate.ErrNoOutput
		}
		if err != nil {
			cfg.Editor.SetStatus("Error: AI generation failed.")
			switch {
			case errors.Is(err, generate.ErrEmptyPrompt):
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			case errors.Is(err, generate.ErrNoOutput):
				WriteError(w, http.StatusBadGateway, err.Error(), "NO_OUTPUT")
			default:
				WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_FAILED")
			}
			return
		}

		inserted := res.Files[0]
		err = cfg.Editor.InsertGeneratedClip(r.Context(), inserted, req.StartMs, req.EndMs, req.OnNewTrack)
		switch {
		case err == nil:
		case errors.Is(err, editor.ErrNoMediaProperties):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "UNPROBEABLE_OUTPUT")
			return
		default:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, GenerateResponse{
			Files:      res.Files,
			Inserted:   inserted,
			DurationMs: res.Duration.Milliseconds(),
			ClipCount:  cfg.Editor.ClipCount(),
		})
	}
}

func getSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Settings == nil {
			WriteError(w, http.StatusServiceUnavailable, "generation backend not configured", "BACKEND_UNAVAILABLE")
			return
		}
		s, err := cfg.Settings.Get()
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, s)
	}
}

// putSettingsHandler merges the request body over the current settings.
// Fields left out of the body keep their values.
func putSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Settings == nil {
			WriteError(w, http.StatusServiceUnavailable, "generation backend not configured", "BACKEND_UNAVAILABLE")
			return
		}
		current, err := cfg.Settings.Get()
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		next := current
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		applied, err := cfg.Settings.Apply(func(s *generate.Settings) { *s = next })
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_SETTINGS")
			return
		}
		if cfg.Doctor != nil {
			cfg.Doctor.Invalidate()
		}
		WriteJSON(w, http.StatusOK, applied)
	}
}
