package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/heimdex/heimdex-editor/internal/export"
)

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		resp, err := export.Write(cfg.Editor.Timeline(), req)
		switch {
		case err == nil:
			WriteJSON(w, http.StatusOK, resp)
		case errors.Is(err, export.ErrNoClips):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EMPTY_TRACK")
		case errors.Is(err, export.ErrUnsupportedFormat),
			errors.Is(err, export.ErrInvalidTrack),
			errors.Is(err, export.ErrInvalidOutputDir):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		default:
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
		}
	}
}
