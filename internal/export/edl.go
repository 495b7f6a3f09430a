// Package export writes timeline tracks as CMX3600 edit decision lists.
package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

const (
	FormatEDL        = "edl"
	DefaultFrameRate = 30.0
	defaultTitle     = "heimdex_export"
)

var (
	ErrUnsupportedFormat = errors.New("format must be edl")
	ErrNoClips           = errors.New("track has no clips")
	ErrInvalidTrack      = errors.New("track does not exist")
	ErrInvalidOutputDir  = errors.New("invalid output directory")
)

// Events converts the clips of one track into EDL events, in timeline
// order. Record times are the clips' own timeline positions, so gaps on
// the track are kept.
func Events(snap timeline.Snapshot, tt timeline.TrackType, index int) []Event {
	channel := "V"
	if tt == timeline.TrackAudio {
		channel = "A"
	}

	var events []Event
	for _, c := range snap.Clips {
		if c.TrackType != tt || c.TrackIndex != index {
			continue
		}
		events = append(events, Event{
			Name:        ClipName(c),
			MediaPath:   c.SourcePath,
			Channel:     channel,
			SourceInMs:  c.ClipStartMs,
			SourceOutMs: c.ClipStartMs + c.DurationMs,
			RecordInMs:  c.TimelineStartMs,
		})
	}
	return events
}

func GenerateEDL(events []Event, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range events {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", ev.Channel,
				msToTimecode(ev.SourceInMs, fps), msToTimecode(ev.SourceOutMs, fps),
				msToTimecode(ev.RecordInMs, fps), msToTimecode(ev.RecordOutMs(), fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.Name),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// Write renders the requested track of snap to <OutputDir>/<name>.edl.
func Write(snap timeline.Snapshot, req Request) (*Response, error) {
	format := strings.ToLower(req.Format)
	if format == "" {
		format = FormatEDL
	}
	if format != FormatEDL {
		return nil, ErrUnsupportedFormat
	}
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}

	tt := req.TrackType
	if tt == "" {
		tt = timeline.TrackVideo
	}
	tracks := snap.VideoTracks
	switch tt {
	case timeline.TrackVideo:
	case timeline.TrackAudio:
		tracks = snap.AudioTracks
	default:
		return nil, fmt.Errorf("%w: unknown track type %q", ErrInvalidTrack, tt)
	}
	index := req.TrackIndex
	if index == 0 {
		index = 1
	}
	if index < 1 || index > tracks {
		return nil, fmt.Errorf("%w: %s track %d", ErrInvalidTrack, tt, index)
	}

	events := Events(snap, tt, index)
	if len(events) == 0 {
		return nil, ErrNoClips
	}

	title := Title(req.ProjectName)
	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	outputPath := filepath.Join(req.OutputDir, title+".edl")
	if err := os.WriteFile(outputPath, []byte(GenerateEDL(events, title, frameRate)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	return &Response{
		Status:     "ok",
		Format:     FormatEDL,
		OutputPath: outputPath,
		EventCount: len(events),
	}, nil
}

func msToTimecode(ms int64, fps int) string {
	totalFrames := int64(math.Round(float64(ms) * float64(fps) / 1000.0))
	f := int64(fps)
	frames := totalFrames % f
	totalSeconds := totalFrames / f
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
