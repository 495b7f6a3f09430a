package api

import (
	"net/http"

	"github.com/heimdex/heimdex-editor/internal/playback"
)

// mediaFileHandler streams a pooled media file for preview. Paths outside
// the pool are never served.
func mediaFileHandler(cfg ServerConfig) http.HandlerFunc {
	srv := playback.NewServer(cfg.Logger)
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}
		if _, ok := cfg.Editor.Pool().Properties(path); !ok {
			WriteError(w, http.StatusNotFound, "media not in pool", "NOT_IN_POOL")
			return
		}
		if err := srv.ServeFile(w, r, path); err != nil {
			cfg.Logger.Error("media preview failed", "path", path, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to read media", "INTERNAL_ERROR")
		}
	}
}
