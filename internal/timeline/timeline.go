// Package timeline holds the editor's timeline model: clips placed on
// numbered video and audio tracks, timed in milliseconds.
//
// A Timeline is not safe for concurrent use; the editor serializes access.
package timeline

import (
	"sort"

	"github.com/google/uuid"
)

type TrackType string

const (
	TrackVideo TrackType = "video"
	TrackAudio TrackType = "audio"
)

type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaImage MediaType = "image"
)

// Clip is a span of a source file placed on one track. Clips sharing a
// GroupID move and trim together.
type Clip struct {
	ID              string    `json:"id"`
	SourcePath      string    `json:"source_path"`
	TimelineStartMs int64     `json:"timeline_start_ms"`
	ClipStartMs     int64     `json:"clip_start_ms"`
	DurationMs      int64     `json:"duration_ms"`
	TrackIndex      int       `json:"track_index"`
	TrackType       TrackType `json:"track_type"`
	MediaType       MediaType `json:"media_type"`
	GroupID         string    `json:"group_id"`
}

// TimelineEndMs is the first millisecond after the clip.
func (c Clip) TimelineEndMs() int64 {
	return c.TimelineStartMs + c.DurationMs
}

type Timeline struct {
	clips       []Clip
	videoTracks int
	audioTracks int
}

// New returns an empty timeline with one video and one audio track.
func New() *Timeline {
	return &Timeline{videoTracks: 1, audioTracks: 1}
}

// Clips returns a copy of the clips ordered by timeline start.
func (t *Timeline) Clips() []Clip {
	out := make([]Clip, len(t.clips))
	copy(out, t.clips)
	return out
}

func (t *Timeline) ClipCount() int {
	return len(t.clips)
}

func (t *Timeline) VideoTracks() int {
	return t.videoTracks
}

func (t *Timeline) AudioTracks() int {
	return t.audioTracks
}

func (t *Timeline) SetVideoTracks(n int) {
	t.videoTracks = max(n, 1)
}

func (t *Timeline) SetAudioTracks(n int) {
	t.audioTracks = max(n, 1)
}

// Tracks returns the track count for a track type.
func (t *Timeline) Tracks(tt TrackType) int {
	if tt == TrackAudio {
		return t.audioTracks
	}
	return t.videoTracks
}

// EnsureTracks grows the track count of tt to at least n. It never shrinks.
func (t *Timeline) EnsureTracks(tt TrackType, n int) {
	switch tt {
	case TrackVideo:
		if n > t.videoTracks {
			t.videoTracks = n
		}
	case TrackAudio:
		if n > t.audioTracks {
			t.audioTracks = n
		}
	}
}

// AddClip inserts c keeping clips ordered by start time. A clip without an
// ID gets a fresh one, which is returned.
func (t *Timeline) AddClip(c Clip) string {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	t.clips = append(t.clips, c)
	sort.SliceStable(t.clips, func(i, j int) bool {
		return t.clips[i].TimelineStartMs < t.clips[j].TimelineStartMs
	})
	return c.ID
}

// Clip returns the clip with the given ID.
func (t *Timeline) Clip(id string) (Clip, bool) {
	for _, c := range t.clips {
		if c.ID == id {
			return c, true
		}
	}
	return Clip{}, false
}

// RemoveClip deletes the clip with the given ID.
func (t *Timeline) RemoveClip(id string) bool {
	for i, c := range t.clips {
		if c.ID == id {
			t.clips = append(t.clips[:i], t.clips[i+1:]...)
			return true
		}
	}
	return false
}

// Group returns the clips sharing groupID.
func (t *Timeline) Group(groupID string) []Clip {
	var out []Clip
	for _, c := range t.clips {
		if c.GroupID == groupID {
			out = append(out, c)
		}
	}
	return out
}

// Clear removes every clip and resets both track counts to one.
func (t *Timeline) Clear() {
	t.clips = nil
	t.videoTracks = 1
	t.audioTracks = 1
}

// TotalDurationMs is the end of the last clip.
func (t *Timeline) TotalDurationMs() int64 {
	var end int64
	for _, c := range t.clips {
		end = max(end, c.TimelineEndMs())
	}
	return end
}

// PruneEmptyTracks drops the highest tracks of each type while they hold no
// clip, keeping at least one track per type. It reports whether anything
// was removed.
func (t *Timeline) PruneEmptyTracks() bool {
	pruned := false
	for t.videoTracks > 1 && !t.occupied(TrackVideo, t.videoTracks) {
		t.videoTracks--
		pruned = true
	}
	for t.audioTracks > 1 && !t.occupied(TrackAudio, t.audioTracks) {
		t.audioTracks--
		pruned = true
	}
	return pruned
}

func (t *Timeline) occupied(tt TrackType, index int) bool {
	for _, c := range t.clips {
		if c.TrackType == tt && c.TrackIndex == index {
			return true
		}
	}
	return false
}

// SplitAt cuts the clip with the given ID at timeline position ms. The left
// part keeps the ID; the right part is returned. newGroupID is used for the
// right part when set, otherwise it stays in the original group. Nothing
// happens when ms is not strictly inside the clip.
func (t *Timeline) SplitAt(id string, ms int64, newGroupID string) (Clip, bool) {
	for i, c := range t.clips {
		if c.ID != id {
			continue
		}
		if ms <= c.TimelineStartMs || ms >= c.TimelineEndMs() {
			return Clip{}, false
		}
		offset := ms - c.TimelineStartMs

		right := c
		right.ID = uuid.NewString()
		right.TimelineStartMs = ms
		right.ClipStartMs = c.ClipStartMs + offset
		right.DurationMs = c.DurationMs - offset
		if newGroupID != "" {
			right.GroupID = newGroupID
		}

		t.clips[i].DurationMs = offset
		t.AddClip(right)
		return right, true
	}
	return Clip{}, false
}

// Snapshot is a copy of the timeline state used for undo.
type Snapshot struct {
	Clips       []Clip `json:"clips"`
	VideoTracks int    `json:"num_video_tracks"`
	AudioTracks int    `json:"num_audio_tracks"`
}

func (t *Timeline) Snapshot() Snapshot {
	return Snapshot{Clips: t.Clips(), VideoTracks: t.videoTracks, AudioTracks: t.audioTracks}
}

func (t *Timeline) Restore(s Snapshot) {
	t.clips = make([]Clip, len(s.Clips))
	copy(t.clips, s.Clips)
	t.SetVideoTracks(s.VideoTracks)
	t.SetAudioTracks(s.AudioTracks)
}
