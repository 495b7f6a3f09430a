package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

var (
	// ErrNoMediaProperties is returned when an inserted file cannot be
	// probed.
	ErrNoMediaProperties = errors.New("could not probe media")
	// ErrInvalidRange is returned for an insertion range that is empty or
	// negative.
	ErrInvalidRange = errors.New("invalid time range")
)

// SaveProject writes the timeline to path as a JSON project.
func (e *Editor) SaveProject(path string) error {
	e.mu.Lock()
	err := e.tl.Save(path)
	if err == nil {
		e.projectPath = path
	}
	e.mu.Unlock()

	if err != nil {
		e.SetStatus(fmt.Sprintf("Error saving project: %v", err))
		return err
	}
	e.SetStatus(fmt.Sprintf("Project saved to %s", filepath.Base(path)))
	return nil
}

// OpenProject replaces the current project with the JSON project at path
// and registers its sources in the media pool. On failure the current
// project is kept.
func (e *Editor) OpenProject(ctx context.Context, path string) error {
	loaded := timeline.New()
	if err := loaded.Load(path); err != nil {
		e.SetStatus(fmt.Sprintf("Error opening project: %v", err))
		return err
	}

	var sources []string
	seen := make(map[string]bool)
	for _, c := range loaded.Clips() {
		if !seen[c.SourcePath] {
			seen[c.SourcePath] = true
			sources = append(sources, c.SourcePath)
		}
	}

	e.pool.Clear()
	if err := e.pool.Register(ctx, sources...); err != nil {
		return fmt.Errorf("failed to register project media: %w", err)
	}

	e.mu.Lock()
	e.tl.Restore(loaded.Snapshot())
	e.undo = nil
	e.redo = nil
	e.projectPath = path
	e.mu.Unlock()

	e.changed()
	e.SetStatus(fmt.Sprintf("Project '%s' loaded.", filepath.Base(path)))
	return nil
}

// InsertGeneratedClip places the file at path on the timeline at startMs
// as one undoable edit. With onNewTrack the clip goes on a fresh video
// track, plus a fresh audio track when the file has audio. Otherwise it
// overwrites [startMs, endMs) on the first tracks: clips crossing either
// boundary are split and the clips inside the range are removed.
func (e *Editor) InsertGeneratedClip(ctx context.Context, path string, startMs, endMs int64, onNewTrack bool) error {
	if startMs < 0 || endMs <= startMs {
		return ErrInvalidRange
	}
	if _, err := os.Stat(path); err != nil {
		e.SetStatus(fmt.Sprintf("Error: Output file not found: %s", path))
		return fmt.Errorf("output file not found: %w", err)
	}
	if err := e.pool.Register(ctx, path); err != nil {
		return err
	}
	props, ok := e.pool.Properties(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoMediaProperties, path)
	}

	err := e.edit("Insert AI Clip", func(tl *timeline.Timeline) error {
		videoTrack, audioTrack := 1, 0
		if props.HasAudio {
			audioTrack = 1
		}

		if onNewTrack {
			videoTrack = tl.VideoTracks() + 1
			tl.SetVideoTracks(videoTrack)
			if props.HasAudio {
				audioTrack = tl.AudioTracks() + 1
				tl.SetAudioTracks(audioTrack)
			}
		} else {
			overwriteRange(tl, startMs, endMs)
		}

		duration := props.DurationMs
		if duration <= 0 {
			duration = endMs - startMs
		}

		group := uuid.NewString()
		tl.AddClip(timeline.Clip{
			SourcePath:      path,
			TimelineStartMs: startMs,
			DurationMs:      duration,
			TrackIndex:      videoTrack,
			TrackType:       timeline.TrackVideo,
			MediaType:       timeline.MediaVideo,
			GroupID:         group,
		})
		if audioTrack > 0 {
			tl.AddClip(timeline.Clip{
				SourcePath:      path,
				TimelineStartMs: startMs,
				DurationMs:      duration,
				TrackIndex:      audioTrack,
				TrackType:       timeline.TrackAudio,
				MediaType:       timeline.MediaVideo,
				GroupID:         group,
			})
		}
		tl.PruneEmptyTracks()
		return nil
	})
	if err != nil {
		e.SetStatus(fmt.Sprintf("Error during clip insertion: %v", err))
		return err
	}

	e.SetStatus("AI clip inserted successfully.")
	return nil
}

// overwriteRange splits every clip at startMs and endMs and removes the
// clips that end up inside the range.
func overwriteRange(tl *timeline.Timeline, startMs, endMs int64) {
	for _, ms := range []int64{startMs, endMs} {
		for _, c := range tl.Clips() {
			tl.SplitAt(c.ID, ms, "")
		}
	}
	for _, c := range tl.Clips() {
		if c.TimelineStartMs >= startMs && c.TimelineEndMs() <= endMs {
			tl.RemoveClip(c.ID)
		}
	}
}
