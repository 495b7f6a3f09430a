package importer

import (
	"sort"

	"github.com/heimdex/heimdex-editor/internal/timeline"
	"github.com/heimdex/heimdex-editor/internal/vpj"
)

// TrackRef is the destination track a project track maps to.
type TrackRef struct {
	Type  timeline.TrackType
	Index int
}

// TrackMap maps project track handles to destination tracks.
type TrackMap struct {
	refs  map[string]TrackRef
	Video int
	Audio int
}

// BuildTrackMap numbers the video and audio tracks of a project from 1,
// separately per type, in (name, handle) order. Tracks of any other type
// are left out. The result does not depend on the order tracks appear in
// the file.
func BuildTrackMap(tracks map[string]vpj.Track) TrackMap {
	sorted := make([]vpj.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Type == vpj.TrackTypeVideo || t.Type == vpj.TrackTypeAudio {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Handle < sorted[j].Handle
	})

	m := TrackMap{refs: make(map[string]TrackRef, len(sorted))}
	for _, t := range sorted {
		switch t.Type {
		case vpj.TrackTypeVideo:
			m.Video++
			m.refs[t.Handle] = TrackRef{Type: timeline.TrackVideo, Index: m.Video}
		case vpj.TrackTypeAudio:
			m.Audio++
			m.refs[t.Handle] = TrackRef{Type: timeline.TrackAudio, Index: m.Audio}
		}
	}
	return m
}

func (m TrackMap) Lookup(handle string) (TrackRef, bool) {
	ref, ok := m.refs[handle]
	return ref, ok
}

// Len is the number of mapped tracks.
func (m TrackMap) Len() int {
	return len(m.refs)
}
