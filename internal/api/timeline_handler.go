package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := cfg.Editor.Timeline()
		clips := snap.Clips
		if clips == nil {
			clips = []timeline.Clip{}
		}
		history := cfg.Editor.History()
		WriteJSON(w, http.StatusOK, TimelineResponse{
			Clips:       clips,
			VideoTracks: snap.VideoTracks,
			AudioTracks: snap.AudioTracks,
			DurationMs:  cfg.Editor.TotalDurationMs(),
			History:     history,
		})
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		label, ok := cfg.Editor.Undo()
		if !ok {
			WriteError(w, http.StatusConflict, "nothing to undo", "NOTHING_TO_UNDO")
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Label: label, ClipCount: cfg.Editor.ClipCount()})
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		label, ok := cfg.Editor.Redo()
		if !ok {
			WriteError(w, http.StatusConflict, "nothing to redo", "NOTHING_TO_REDO")
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Label: label, ClipCount: cfg.Editor.ClipCount()})
	}
}

func newProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Editor.NewProject()
		w.WriteHeader(http.StatusNoContent)
	}
}

func saveProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			req.Path = cfg.Editor.ProjectPath()
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		if err := cfg.Editor.SaveProject(req.Path); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectResponse{Path: req.Path, ClipCount: cfg.Editor.ClipCount()})
	}
}

func openProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		err := cfg.Editor.OpenProject(r.Context(), req.Path)
		switch {
		case err == nil:
			WriteJSON(w, http.StatusOK, ProjectResponse{Path: req.Path, ClipCount: cfg.Editor.ClipCount()})
		case errors.Is(err, timeline.ErrMissingMedia):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "MISSING_MEDIA")
		default:
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		}
	}
}
