package vpj

import (
	"fmt"
	"regexp"
	"strings"
)

// Section names as they appear in a .vpj header line ("clips=12").
const (
	SectionClips          = "clips"
	SectionTracks         = "tracks"
	SectionTrackClips     = "trackclips"
	SectionSubtitleTracks = "subtitletracks"
)

// region is a section and the header that closes it. The closing section
// is only used as a sentinel and is not parsed itself.
type region struct {
	name   string
	until  string
	header *regexp.Regexp
	end    *regexp.Regexp
}

var (
	clipsRegion      = newRegion(SectionClips, SectionTracks)
	tracksRegion     = newRegion(SectionTracks, SectionTrackClips)
	trackClipsRegion = newRegion(SectionTrackClips, SectionSubtitleTracks)
)

func newRegion(name, until string) region {
	return region{
		name:   name,
		until:  until,
		header: regexp.MustCompile(fmt.Sprintf(`(?m)^%s=\d+[^\n]*$`, regexp.QuoteMeta(name))),
		end:    regexp.MustCompile(fmt.Sprintf(`(?m)^%s=\d+\s*$`, regexp.QuoteMeta(until))),
	}
}

// ExtractSection returns the body between the "name=<count>" header line
// and the first "until=<count>" header after it. The search runs over the
// whole content, so a missing section never hides another one. ok is false
// unless both headers are present.
func ExtractSection(content, name, until string) (body string, ok bool) {
	return extract(content, newRegion(name, until))
}

func extract(content string, r region) (string, bool) {
	loc := r.header.FindStringIndex(content)
	if loc == nil {
		return "", false
	}
	rest := strings.TrimPrefix(content[loc[1]:], "\n")

	end := r.end.FindStringIndex(rest)
	if end == nil {
		return "", false
	}
	return rest[:end[0]], true
}

// Records returns the decoded fields of every record line in a section
// body. Only lines whose first field is the handle ("h=") are records.
func Records(body string) []map[string]string {
	var records []map[string]string
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "h=") {
			continue
		}
		records = append(records, ParseLine(line))
	}
	return records
}
