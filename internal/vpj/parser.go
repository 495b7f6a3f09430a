// Package vpj decodes VideoPad project files (.vpj).
//
// A project file is plain text holding several sections, each announced by a
// "name=<count>" header line and made of one record per line. A record is an
// '&'-joined list of percent-encoded key=value pairs whose first key is the
// record handle "h". The parser only reads the clips, tracks and trackclips
// sections; subtitletracks marks the end of trackclips.
package vpj

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrNoContent is returned when a file yields no media, no tracks and no
// placements at all.
var ErrNoContent = errors.New("no importable content found")

type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile reads and parses a project file.
func (p *Parser) ParseFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return p.Parse(string(data))
}

// Parse decodes project content. Missing sections are not an error; an
// entirely empty result is ErrNoContent.
func (p *Parser) Parse(content string) (*Project, error) {
	content = normalize(content)
	b := NewBuilder()

	sections := Sections{}
	sections.Clips = p.fold(content, clipsRegion, b.AddMedia)
	sections.Tracks = p.fold(content, tracksRegion, b.AddTrack)
	sections.TrackClips = p.fold(content, trackClipsRegion, b.AddPlacement)

	project := b.Project()
	project.Sections = sections

	if project.Empty() {
		if p.logger != nil {
			p.logger.Warn("project file has no clips, tracks or placements")
		}
		return nil, ErrNoContent
	}

	if p.logger != nil {
		p.logger.Debug("project parsed",
			"media", len(project.Media),
			"tracks", len(project.Tracks),
			"placements", len(project.Placements),
		)
	}
	return project, nil
}

// fold feeds every record of one section to accept and reports whether the
// section was present.
func (p *Parser) fold(content string, r region, accept func(map[string]string) bool) bool {
	body, ok := extract(content, r)
	if !ok {
		if p.logger != nil {
			p.logger.Debug("section not found", "section", r.name, "until", r.until)
		}
		return false
	}

	rejected := 0
	for _, fields := range Records(body) {
		if !accept(fields) {
			rejected++
		}
	}
	if rejected > 0 && p.logger != nil {
		p.logger.Debug("records missing required keys", "section", r.name, "count", rejected)
	}
	return true
}

// normalize drops invalid UTF-8 and converts line endings to '\n'.
func normalize(content string) string {
	content = strings.ToValidUTF8(content, "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}
