package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMissingMedia is returned by Load when a clip's source file is gone.
var ErrMissingMedia = errors.New("missing media file")

// projectFile is the on-disk layout of a saved project.
type projectFile struct {
	Clips    []Clip          `json:"clips"`
	Settings projectSettings `json:"settings"`
}

type projectSettings struct {
	NumVideoTracks int `json:"num_video_tracks"`
	NumAudioTracks int `json:"num_audio_tracks"`
}

// Save writes the timeline as an indented JSON project file.
func (t *Timeline) Save(path string) error {
	pf := projectFile{
		Clips: t.Clips(),
		Settings: projectSettings{
			NumVideoTracks: t.videoTracks,
			NumAudioTracks: t.audioTracks,
		},
	}
	if pf.Clips == nil {
		pf.Clips = []Clip{}
	}

	data, err := json.MarshalIndent(pf, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// Load reads a project file written by Save. The timeline is only replaced
// when every referenced source file exists; otherwise it is left untouched
// and the error wraps ErrMissingMedia. Empty trailing tracks are pruned.
func (t *Timeline) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read project: %w", err)
	}

	pf := projectFile{Settings: projectSettings{NumVideoTracks: 1, NumAudioTracks: 1}}
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to decode project: %w", err)
	}

	for _, c := range pf.Clips {
		if _, err := os.Stat(c.SourcePath); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingMedia, c.SourcePath)
		}
	}

	loaded := New()
	for _, c := range pf.Clips {
		loaded.AddClip(c)
	}
	loaded.SetVideoTracks(pf.Settings.NumVideoTracks)
	loaded.SetAudioTracks(pf.Settings.NumAudioTracks)
	loaded.PruneEmptyTracks()

	*t = *loaded
	return nil
}
