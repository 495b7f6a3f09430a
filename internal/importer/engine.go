package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-editor/internal/media"
	"github.com/heimdex/heimdex-editor/internal/metrics"
	"github.com/heimdex/heimdex-editor/internal/timeline"
	"github.com/heimdex/heimdex-editor/internal/vpj"
)

// Reason names why a placement was not turned into a clip.
type Reason string

const (
	ReasonMediaNotFound Reason = "source media clip not found"
	ReasonTrackNotFound Reason = "track not found"
	ReasonFileMissing   Reason = "source file does not exist"
	ReasonNoProperties  Reason = "media properties unavailable"
	ReasonInvalidTime   Reason = "invalid time value"
	ReasonEmptyDuration Reason = "duration is zero or negative"
)

// MediaPool registers source files and serves their probed properties.
// *media.Pool satisfies it.
type MediaPool interface {
	Register(ctx context.Context, paths ...string) error
	Properties(path string) (media.Properties, bool)
}

// Destination is the timeline an import writes into. *timeline.Timeline
// satisfies it.
type Destination interface {
	ClipCount() int
	VideoTracks() int
	SetVideoTracks(n int)
	AudioTracks() int
	SetAudioTracks(n int)
	AddClip(c timeline.Clip) string
}

// Result summarizes one run of the engine.
type Result struct {
	ClipsCreated int            `json:"clips_created"`
	Discards     map[Reason]int `json:"discards"`
	// Missing lists referenced media paths not found on disk, sorted.
	Missing []string `json:"missing"`
}

// Discarded is the total number of placements skipped.
func (r Result) Discarded() int {
	n := 0
	for _, c := range r.Discards {
		n += c
	}
	return n
}

// Engine turns a decoded project into timeline clips.
type Engine struct {
	pool       MediaPool
	logger     *slog.Logger
	newGroupID func() string
	exists     func(path string) bool
}

type EngineOption func(*Engine)

// WithGroupIDs sets the generator for group ids. The default mints UUIDs.
func WithGroupIDs(fn func() string) EngineOption {
	return func(e *Engine) { e.newGroupID = fn }
}

// WithFileCheck replaces the on-disk existence check for media paths.
func WithFileCheck(fn func(path string) bool) EngineOption {
	return func(e *Engine) { e.exists = fn }
}

func NewEngine(pool MediaPool, logger *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		pool:       pool,
		logger:     logger,
		newGroupID: uuid.NewString,
		exists:     fileExists,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Populate registers the project's media, grows the destination's track
// counts to fit the project and appends one clip per resolvable placement,
// in file order. Problems with single placements are counted in the result
// and never returned; the only error is context cancellation.
func (e *Engine) Populate(ctx context.Context, project *vpj.Project, dst Destination) (Result, error) {
	res := Result{Discards: make(map[Reason]int)}
	missing := make(map[string]bool)

	var present []string
	for _, h := range project.MediaOrder {
		path := project.Media[h].Path
		if path == "" {
			continue
		}
		if e.exists(path) {
			present = append(present, path)
		} else {
			e.warn("media file not found", "path", path)
			missing[path] = true
		}
	}
	if err := e.pool.Register(ctx, present...); err != nil {
		return res, fmt.Errorf("failed to register media: %w", err)
	}

	tracks := BuildTrackMap(project.Tracks)
	if tracks.Video > dst.VideoTracks() {
		dst.SetVideoTracks(tracks.Video)
	}
	if tracks.Audio > dst.AudioTracks() {
		dst.SetAudioTracks(tracks.Audio)
	}

	groups := NewGrouper(e.newGroupID)
	keys := make([]string, len(project.Placements))
	for i, p := range project.Placements {
		keys[i] = placementKey(i, p)
		if p.IsLinked() {
			groups.Link(keys[i], p.Linked)
		}
	}

	discard := func(p vpj.Placement, reason Reason, args ...any) {
		res.Discards[reason]++
		metrics.RecordDiscard(string(reason))
		e.warn("discarded placement",
			append([]any{"reason", string(reason), "placement", p.Handle, "media", p.OriginalClip, "track", p.Track}, args...)...)
	}

	for i, p := range project.Placements {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		src, ok := project.Media[p.OriginalClip]
		if !ok {
			discard(p, ReasonMediaNotFound)
			continue
		}
		track, ok := tracks.Lookup(p.Track)
		if !ok {
			discard(p, ReasonTrackNotFound)
			continue
		}
		if src.Path == "" || missing[src.Path] || !e.exists(src.Path) {
			if src.Path != "" {
				missing[src.Path] = true
			}
			discard(p, ReasonFileMissing, "path", src.Path)
			continue
		}
		props, ok := e.pool.Properties(src.Path)
		if !ok {
			discard(p, ReasonNoProperties, "path", src.Path)
			continue
		}

		start, in, out, err := placementTiming(p)
		if err != nil {
			discard(p, ReasonInvalidTime, "error", err)
			continue
		}
		duration := out - in
		if duration <= 0 {
			discard(p, ReasonEmptyDuration, "in", in, "out", out)
			continue
		}

		dst.AddClip(timeline.Clip{
			SourcePath:      src.Path,
			TimelineStartMs: start,
			ClipStartMs:     in,
			DurationMs:      duration,
			TrackIndex:      track.Index,
			TrackType:       track.Type,
			MediaType:       props.MediaType,
			GroupID:         groups.GroupID(keys[i]),
		})
		res.ClipsCreated++
	}

	res.Missing = make([]string, 0, len(missing))
	for path := range missing {
		res.Missing = append(res.Missing, path)
	}
	sort.Strings(res.Missing)

	metrics.ClipsCreated.Add(float64(res.ClipsCreated))
	metrics.MissingFiles.Add(float64(len(res.Missing)))

	if e.logger != nil {
		e.logger.Info("populated timeline",
			"clips_created", res.ClipsCreated,
			"discarded", res.Discarded(),
			"missing_files", len(res.Missing),
		)
	}
	return res, nil
}

// placementKey is the grouping key of a placement. Placements without a
// handle cannot be linked to and get a key of their own.
func placementKey(i int, p vpj.Placement) string {
	if p.Handle != "" {
		return p.Handle
	}
	return "#" + strconv.Itoa(i)
}

func placementTiming(p vpj.Placement) (start, in, out int64, err error) {
	if start, err = parseMillis(p.Offset); err != nil {
		return 0, 0, 0, fmt.Errorf("offset: %w", err)
	}
	if in, err = parseMillis(p.In); err != nil {
		return 0, 0, 0, fmt.Errorf("in: %w", err)
	}
	if out, err = parseMillis(p.Out); err != nil {
		return 0, 0, 0, fmt.Errorf("out: %w", err)
	}
	return start, in, out, nil
}

var errNotFinite = errors.New("not a finite number")

// parseMillis parses a decimal millisecond value and truncates it toward
// zero. Negative values are kept.
func parseMillis(s string) (int64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= math.MaxInt64 {
		return 0, errNotFinite
	}
	return int64(v), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
