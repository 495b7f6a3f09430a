package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

// DefaultFFprobe is the ffprobe binary looked up on PATH.
const DefaultFFprobe = "ffprobe"

// ErrNoStreams is returned for files ffprobe opens but finds no audio or
// video stream in.
var ErrNoStreams = errors.New("no audio or video stream")

type Prober interface {
	Probe(ctx context.Context, path string) (Properties, error)
}

// FFprobe probes files with the ffprobe command line tool.
type FFprobe struct {
	bin    string
	logger *slog.Logger
}

func NewFFprobe(bin string, logger *slog.Logger) *FFprobe {
	if bin == "" {
		bin = DefaultFFprobe
	}
	return &FFprobe{bin: bin, logger: logger}
}

func (f *FFprobe) Probe(ctx context.Context, path string) (Properties, error) {
	if path == "" {
		return Properties{}, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := exec.CommandContext(ctx, f.bin, args...).Output()
	if err != nil {
		return Properties{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	props, err := parseProbeOutput(out)
	if err != nil {
		return Properties{}, err
	}

	if f.logger != nil {
		f.logger.Debug("probed media",
			"path", path,
			"media_type", props.MediaType,
			"duration_ms", props.DurationMs,
		)
	}
	return props, nil
}

// probeOutput matches the subset of ffprobe's JSON output the editor uses.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}

var imageCodecs = map[string]bool{
	"png": true, "mjpeg": true, "bmp": true, "gif": true,
	"tiff": true, "webp": true, "jpegls": true,
}

func parseProbeOutput(data []byte) (Properties, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return Properties{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var props Properties
	formatDuration := parseSeconds(probe.Format.Duration)
	props.Size, _ = strconv.ParseInt(probe.Format.Size, 10, 64)

	hasVideo := false
	videoCodec := ""
	var streamDuration int64
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if hasVideo {
				continue
			}
			hasVideo = true
			videoCodec = s.CodecName
			props.Width = s.Width
			props.Height = s.Height
			props.FrameRate = parseFrameRate(s.RFrameRate)
			streamDuration = parseSeconds(s.Duration)
		case "audio":
			props.HasAudio = true
		}
	}

	switch {
	case hasVideo:
		props.DurationMs = streamDuration
		if props.DurationMs == 0 {
			props.DurationMs = formatDuration
		}
		if imageCodecs[videoCodec] && props.DurationMs == 0 {
			props.MediaType = timeline.MediaImage
		} else {
			props.MediaType = timeline.MediaVideo
		}
	case props.HasAudio:
		props.MediaType = timeline.MediaAudio
		props.DurationMs = formatDuration
	default:
		return Properties{}, ErrNoStreams
	}

	return props, nil
}

// parseSeconds converts an ffprobe seconds string to whole milliseconds.
func parseSeconds(s string) int64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int64(v * 1000)
}

// parseFrameRate parses a rational like "30000/1001".
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// StubProber returns fixed properties for every path. Used when ffprobe is
// not installed and in tests.
type StubProber struct {
	Props  Properties
	Err    error
	logger *slog.Logger
}

func NewStubProber(props Properties, logger *slog.Logger) *StubProber {
	return &StubProber{Props: props, logger: logger}
}

func (p *StubProber) Probe(ctx context.Context, path string) (Properties, error) {
	if p.logger != nil {
		p.logger.Info("probe stub: returning fixed properties", "path", path)
	}
	if p.Err != nil {
		return Properties{}, p.Err
	}
	return p.Props, nil
}
