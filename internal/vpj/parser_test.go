package vpj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `version=5.03
name=Holiday
clips=3
h=101&path=%2Fmedia%2Fbeach.mp4&type=video
h=102&path=%2Fmedia%2Fwaves.wav
h=103&type=image
tracks=3
h=201&type=1&name=Video%20Track%201
h=202&type=2&name=Audio%20Track%201
h=203&type=9&name=Overlay
trackclips=3
h=301&horiginalclip=101&htrack=201&hlinked=302&offset=0&in=1000&out=4000
h=302&horiginalclip=101&htrack=202&hlinked=0&offset=0&in=1000&out=4000
h=303&horiginalclip=102&offset=500
subtitletracks=0
`

func TestParse_SampleProject(t *testing.T) {
	p := NewParser(nil)

	project, err := p.Parse(sampleProject)
	require.NoError(t, err)

	assert.Equal(t, Sections{Clips: true, Tracks: true, TrackClips: true}, project.Sections)

	require.Len(t, project.Media, 2, "record without path must be rejected")
	assert.Equal(t, "/media/beach.mp4", project.Media["101"].Path)
	assert.Equal(t, []string{"101", "102"}, project.MediaOrder)

	require.Len(t, project.Tracks, 3)
	assert.Equal(t, "Video Track 1", project.Tracks["201"].Name)
	assert.Equal(t, "9", project.Tracks["203"].Type)

	require.Len(t, project.Placements, 2, "placement without htrack must be rejected")
	first := project.Placements[0]
	assert.Equal(t, "301", first.Handle)
	assert.Equal(t, "302", first.Linked)
	assert.True(t, first.IsLinked())
	assert.Equal(t, "1000", first.In)
	assert.False(t, project.Placements[1].IsLinked())
}

func TestParse_CRLFLineEndings(t *testing.T) {
	p := NewParser(nil)

	project, err := p.Parse(strings.ReplaceAll(sampleProject, "\n", "\r\n"))
	require.NoError(t, err)

	assert.Len(t, project.Media, 2)
	assert.Equal(t, "/media/waves.wav", project.Media["102"].Path)
	assert.Len(t, project.Placements, 2)
}

func TestParse_MissingTrackClipsSection(t *testing.T) {
	// tracks is closed by the trackclips header, so it goes missing too
	content := `clips=1
h=1&path=%2Fa.mp4
tracks=1
h=2&type=1
`
	project, err := NewParser(nil).Parse(content)
	require.NoError(t, err)

	assert.True(t, project.Sections.Clips)
	assert.False(t, project.Sections.Tracks)
	assert.False(t, project.Sections.TrackClips)
	assert.Len(t, project.Media, 1)
	assert.Empty(t, project.Tracks)
	assert.Empty(t, project.Placements)
}

func TestParse_UnterminatedSectionIsAbsent(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantClips      bool
		wantTracks     bool
		wantTrackClips bool
	}{
		{
			name:           "no subtitletracks header",
			content:        "clips=1\nh=1&path=%2Fa.mp4\ntracks=1\nh=2&type=1\ntrackclips=1\nh=3&horiginalclip=1&htrack=2\n",
			wantClips:      true,
			wantTracks:     true,
			wantTrackClips: false,
		},
		{
			name:           "no tracks header",
			content:        "clips=1\nh=1&path=%2Fa.mp4\ntrackclips=1\nh=3&horiginalclip=1&htrack=2\nsubtitletracks=0\n",
			wantClips:      false,
			wantTracks:     false,
			wantTrackClips: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := NewParser(nil).Parse(tt.content)
			require.NoError(t, err)

			assert.Equal(t, tt.wantClips, project.Sections.Clips)
			assert.Equal(t, tt.wantTracks, project.Sections.Tracks)
			assert.Equal(t, tt.wantTrackClips, project.Sections.TrackClips)
			assert.Equal(t, tt.wantClips, len(project.Media) > 0)
			assert.Equal(t, tt.wantTrackClips, len(project.Placements) > 0)
		})
	}
}

func TestParse_SectionsAreIndependent(t *testing.T) {
	// no clips section: tracks and trackclips still decode
	content := `tracks=1
h=2&type=1
trackclips=1
h=3&horiginalclip=1&htrack=2
subtitletracks=0
`
	project, err := NewParser(nil).Parse(content)
	require.NoError(t, err)

	assert.False(t, project.Sections.Clips)
	assert.Empty(t, project.Media)
	assert.Len(t, project.Tracks, 1)
	assert.Len(t, project.Placements, 1)
}

func TestParse_EmptySectionBody(t *testing.T) {
	content := "clips=0\ntracks=1\nh=2&type=2\ntrackclips=0\nsubtitletracks=0\n"

	project, err := NewParser(nil).Parse(content)
	require.NoError(t, err)

	assert.True(t, project.Sections.Clips)
	assert.True(t, project.Sections.TrackClips)
	assert.Len(t, project.Tracks, 1)
}

func TestParse_TrackClipsHeaderIsNotClipsHeader(t *testing.T) {
	// "trackclips=" contains "clips=" but must not open the clips section
	content := `trackclips=1
h=3&horiginalclip=1&htrack=2&path=%2Fwrong.mp4
subtitletracks=0
`
	project, err := NewParser(nil).Parse(content)
	require.NoError(t, err)

	assert.False(t, project.Sections.Clips)
	assert.Empty(t, project.Media)
	assert.Len(t, project.Placements, 1)
}

func TestParse_NoContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"not a project", "hello world\nthis is not a vpj file\n"},
		{"sections without records", "clips=0\ntracks=0\ntrackclips=0\nsubtitletracks=0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := NewParser(nil).Parse(tt.content)
			assert.Nil(t, project)
			assert.True(t, errors.Is(err, ErrNoContent), "err = %v", err)
		})
	}
}

func TestParse_DuplicateHandleLastWins(t *testing.T) {
	content := `clips=2
h=1&path=%2Ffirst.mp4
h=1&path=%2Fsecond.mp4
tracks=0
trackclips=0
`
	project, err := NewParser(nil).Parse(content)
	require.NoError(t, err)

	assert.Equal(t, "/second.mp4", project.Media["1"].Path)
	assert.Equal(t, []string{"1"}, project.MediaOrder)
}

func TestParse_AbsentTimingDefaultsToZero(t *testing.T) {
	content := "trackclips=1\nh=3&horiginalclip=1&htrack=2&in=\nsubtitletracks=0\n"

	project, err := NewParser(nil).Parse(content)
	require.NoError(t, err)
	require.Len(t, project.Placements, 1)

	pl := project.Placements[0]
	assert.Equal(t, "0", pl.Offset)
	assert.Equal(t, "", pl.In, "present but empty stays empty")
	assert.Equal(t, "0", pl.Out)
	assert.Equal(t, Unlinked, pl.Linked)
}

func TestParseFile_Unreadable(t *testing.T) {
	_, err := NewParser(nil).ParseFile(filepath.Join(t.TempDir(), "missing.vpj"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holiday.vpj")
	require.NoError(t, os.WriteFile(path, []byte(sampleProject), 0o644))

	project, err := NewParser(nil).ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, project.Placements, 2)
}
