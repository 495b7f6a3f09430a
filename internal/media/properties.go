// Package media keeps the editor's media pool: the set of source files known
// to the project and their probed properties.
package media

import (
	"time"

	"github.com/heimdex/heimdex-editor/internal/catalog"
	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// Properties describes a probed media file.
type Properties struct {
	MediaType  timeline.MediaType `json:"media_type"`
	DurationMs int64              `json:"duration_ms"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	FrameRate  float64            `json:"frame_rate"`
	HasAudio   bool               `json:"has_audio"`
	Size       int64              `json:"size"`
}

func fromEntry(e *catalog.MediaEntry) Properties {
	return Properties{
		MediaType:  timeline.MediaType(e.MediaType),
		DurationMs: e.DurationMs,
		Width:      e.Width,
		Height:     e.Height,
		FrameRate:  e.FrameRate,
		HasAudio:   e.HasAudio,
		Size:       e.Size,
	}
}

func toEntry(path string, p Properties, mtime time.Time) *catalog.MediaEntry {
	return &catalog.MediaEntry{
		Path:       path,
		MediaType:  string(p.MediaType),
		DurationMs: p.DurationMs,
		Width:      p.Width,
		Height:     p.Height,
		FrameRate:  p.FrameRate,
		HasAudio:   p.HasAudio,
		Size:       p.Size,
		Mtime:      mtime,
		ProbedAt:   time.Now(),
	}
}
