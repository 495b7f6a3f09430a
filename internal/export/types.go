package export

import "github.com/heimdex/heimdex-editor/internal/timeline"

// Request selects one timeline track to write as an edit decision list.
// A zero TrackIndex means the first track of TrackType.
type Request struct {
	ProjectName string             `json:"project_name"`
	Format      string             `json:"format"`
	FrameRate   float64            `json:"frame_rate"`
	OutputDir   string             `json:"output_dir"`
	TrackType   timeline.TrackType `json:"track_type"`
	TrackIndex  int                `json:"track_index"`
}

// Event is one EDL event, timed in milliseconds.
type Event struct {
	Name        string
	MediaPath   string
	Channel     string
	SourceInMs  int64
	SourceOutMs int64
	RecordInMs  int64
}

func (e Event) RecordOutMs() int64 {
	return e.RecordInMs + e.SourceOutMs - e.SourceInMs
}

type Response struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	EventCount int    `json:"event_count"`
}
