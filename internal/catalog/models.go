package catalog

import (
	"time"

	"github.com/google/uuid"
)

const (
	ImportStatusRunning   = "running"
	ImportStatusCompleted = "completed"
	ImportStatusFailed    = "failed"
	ImportStatusCancelled = "cancelled"
)

// ImportRecord is one run of the project importer.
type ImportRecord struct {
	ID           string    `json:"id"`
	ProjectPath  string    `json:"project_path"`
	Status       string    `json:"status"`
	ClipsCreated int       `json:"clips_created"`
	Discarded    int       `json:"discarded"`
	MissingFiles int       `json:"missing_files"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MediaEntry caches the probed properties of one media file. An entry is
// stale once the file's size or mtime differ from the recorded ones.
type MediaEntry struct {
	Path       string    `json:"path"`
	MediaType  string    `json:"media_type"`
	DurationMs int64     `json:"duration_ms"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FrameRate  float64   `json:"frame_rate"`
	HasAudio   bool      `json:"has_audio"`
	Size       int64     `json:"size"`
	Mtime      time.Time `json:"mtime"`
	ProbedAt   time.Time `json:"probed_at"`
}

// Fresh reports whether the entry still describes a file of the given size
// and modification time.
func (e *MediaEntry) Fresh(size int64, mtime time.Time) bool {
	return e.Size == size && e.Mtime.Equal(mtime.UTC().Truncate(time.Second))
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewID() string {
	return uuid.NewString()
}
