package api

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/heimdex/heimdex-editor/internal/catalog"
	"github.com/heimdex/heimdex-editor/internal/generate"
	"github.com/heimdex/heimdex-editor/internal/importer"
	"github.com/heimdex/heimdex-editor/internal/media"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string                    `json:"state"`
	Message     string                    `json:"message,omitempty"`
	ProjectPath string                    `json:"project_path,omitempty"`
	ClipCount   int                       `json:"clip_count"`
	MediaCount  int                       `json:"media_count"`
	DurationMs  int64                     `json:"duration_ms"`
	CanUndo     bool                      `json:"can_undo"`
	CanRedo     bool                      `json:"can_redo"`
	LastImport  *ImportResponse           `json:"last_import,omitempty"`
	Generation  *GenerationStatusResponse `json:"generation,omitempty"`
}

type GenerationStatusResponse struct {
	CanGenerate bool     `json:"can_generate"`
	Models      []string `json:"models"`
	LastProbeAt string   `json:"last_probe_at,omitempty"`
	DepsAvail   int      `json:"deps_available"`
	DepsTotal   int      `json:"deps_total"`
}

// ImportRequest starts an import. Confirm must be set to replace a project
// that already has content.
type ImportRequest struct {
	Path    string `json:"path"`
	Confirm bool   `json:"confirm"`
}

type ImportResponse struct {
	ID           string `json:"id"`
	ProjectPath  string `json:"project_path"`
	Status       string `json:"status"`
	ClipsCreated int    `json:"clips_created"`
	Discarded    int    `json:"discarded"`
	MissingFiles int    `json:"missing_files"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type ImportsResponse struct {
	Imports []ImportResponse `json:"imports"`
}

type ImportResultResponse struct {
	ID           string                  `json:"id"`
	ProjectPath  string                  `json:"project_path"`
	ClipsCreated int                     `json:"clips_created"`
	Discards     map[importer.Reason]int `json:"discards"`
	Missing      []string                `json:"missing"`
	Status       string                  `json:"status"`
	Message      string                  `json:"message,omitempty"`
}

type TimelineResponse struct {
	Clips       []timeline.Clip `json:"clips"`
	VideoTracks int             `json:"num_video_tracks"`
	AudioTracks int             `json:"num_audio_tracks"`
	DurationMs  int64           `json:"duration_ms"`
	History     []string        `json:"history"`
}

type HistoryResponse struct {
	Label     string `json:"label"`
	ClipCount int    `json:"clip_count"`
}

type ProjectRequest struct {
	Path string `json:"path"`
}

type ProjectResponse struct {
	Path      string `json:"path"`
	ClipCount int    `json:"clip_count"`
}

type MediaResponse struct {
	Path       string             `json:"path"`
	MediaType  timeline.MediaType `json:"media_type"`
	DurationMs int64              `json:"duration_ms"`
	Width      int                `json:"width,omitempty"`
	Height     int                `json:"height,omitempty"`
	FrameRate  float64            `json:"frame_rate,omitempty"`
	HasAudio   bool               `json:"has_audio"`
	Size       int64              `json:"size"`
	SizeHuman  string             `json:"size_human"`
}

type MediaListResponse struct {
	Media []MediaResponse `json:"media"`
}

// GenerateRequest asks the backend for a clip and places it over
// [StartMs, EndMs) of the timeline.
type GenerateRequest struct {
	generate.Request
	StartMs    int64 `json:"start_ms"`
	EndMs      int64 `json:"end_ms"`
	OnNewTrack bool  `json:"on_new_track"`
}

type GenerateResponse struct {
	Files      []string `json:"files"`
	Inserted   string   `json:"inserted"`
	DurationMs int64    `json:"duration_ms"`
	ClipCount  int      `json:"clip_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ImportToResponse(rec *catalog.ImportRecord) ImportResponse {
	return ImportResponse{
		ID:           rec.ID,
		ProjectPath:  rec.ProjectPath,
		Status:       rec.Status,
		ClipsCreated: rec.ClipsCreated,
		Discarded:    rec.Discarded,
		MissingFiles: rec.MissingFiles,
		Error:        rec.Error,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    rec.UpdatedAt.Format(time.RFC3339),
	}
}

func OutcomeToResponse(out *importer.Outcome) ImportResultResponse {
	missing := out.Result.Missing
	if missing == nil {
		missing = []string{}
	}
	discards := out.Result.Discards
	if discards == nil {
		discards = map[importer.Reason]int{}
	}
	return ImportResultResponse{
		ID:           out.ID,
		ProjectPath:  out.ProjectPath,
		ClipsCreated: out.Result.ClipsCreated,
		Discards:     discards,
		Missing:      missing,
		Status:       out.Summary.Status,
		Message:      out.Summary.Message,
	}
}

func MediaToResponse(e media.Entry) MediaResponse {
	return MediaResponse{
		Path:       e.Path,
		MediaType:  e.MediaType,
		DurationMs: e.DurationMs,
		Width:      e.Width,
		Height:     e.Height,
		FrameRate:  e.FrameRate,
		HasAudio:   e.HasAudio,
		Size:       e.Size,
		SizeHuman:  humanize.Bytes(uint64(e.Size)),
	}
}
