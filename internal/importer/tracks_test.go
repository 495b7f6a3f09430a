package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heimdex/heimdex-editor/internal/timeline"
	"github.com/heimdex/heimdex-editor/internal/vpj"
)

func TestBuildTrackMap(t *testing.T) {
	m := BuildTrackMap(map[string]vpj.Track{
		"10": {Handle: "10", Type: "1", Name: "Video B"},
		"11": {Handle: "11", Type: "1", Name: "Video A"},
		"12": {Handle: "12", Type: "2", Name: "Audio"},
		"13": {Handle: "13", Type: "3", Name: "Text"},
	})

	assert.Equal(t, 2, m.Video)
	assert.Equal(t, 1, m.Audio)
	assert.Equal(t, 3, m.Len())

	ref, ok := m.Lookup("11")
	require.True(t, ok)
	assert.Equal(t, TrackRef{Type: timeline.TrackVideo, Index: 1}, ref)

	ref, _ = m.Lookup("10")
	assert.Equal(t, 2, ref.Index)

	ref, _ = m.Lookup("12")
	assert.Equal(t, TrackRef{Type: timeline.TrackAudio, Index: 1}, ref)

	_, ok = m.Lookup("13")
	assert.False(t, ok)
}

func TestBuildTrackMap_IndependentOfFileOrder(t *testing.T) {
	forward := project(
		[]string{"h=101&path=%2Fm%2Fa.mp4"},
		[]string{"h=201&type=1&name=B", "h=202&type=1&name=A", "h=203&type=2&name=A", "h=204&type=1&name=A"},
		[]string{"h=301&horiginalclip=101&htrack=201&out=1"},
	)
	reversed := project(
		[]string{"h=101&path=%2Fm%2Fa.mp4"},
		[]string{"h=204&type=1&name=A", "h=203&type=2&name=A", "h=202&type=1&name=A", "h=201&type=1&name=B"},
		[]string{"h=301&horiginalclip=101&htrack=201&out=1"},
	)

	a := BuildTrackMap(parse(t, forward).Tracks)
	b := BuildTrackMap(parse(t, reversed).Tracks)
	assert.Equal(t, a, b)

	// equal names fall back to handle order
	ref, _ := a.Lookup("202")
	assert.Equal(t, 1, ref.Index)
	ref, _ = a.Lookup("204")
	assert.Equal(t, 2, ref.Index)
	ref, _ = a.Lookup("201")
	assert.Equal(t, 3, ref.Index)
}
