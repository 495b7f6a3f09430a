package vpj

// Record keys understood by the importer. Anything else is kept in Attrs.
const (
	KeyHandle       = "h"
	KeyPath         = "path"
	KeyType         = "type"
	KeyName         = "name"
	KeyOriginalClip = "horiginalclip"
	KeyTrack        = "htrack"
	KeyLinked       = "hlinked"
	KeyOffset       = "offset"
	KeyIn           = "in"
	KeyOut          = "out"
)

// Track type codes.
const (
	TrackTypeVideo = "1"
	TrackTypeAudio = "2"
)

// Unlinked is the hlinked value of a placement that belongs to no group.
const Unlinked = "0"

// MediaClip is one source media item of the project.
type MediaClip struct {
	Handle string
	Path   string
	Attrs  map[string]string
}

// Track is one declared track. Type is the raw type code.
type Track struct {
	Handle string
	Type   string
	Name   string
	Attrs  map[string]string
}

// Placement is one clip placed on a track. Timing fields hold the raw text
// from the file; absent timing fields read as "0".
type Placement struct {
	Handle       string
	OriginalClip string
	Track        string
	Linked       string
	Offset       string
	In           string
	Out          string
	Attrs        map[string]string
}

// IsLinked reports whether the placement declares a link to another one.
func (p Placement) IsLinked() bool {
	return p.Linked != "" && p.Linked != Unlinked
}

// Sections records which sections were found in the file.
type Sections struct {
	Clips      bool
	Tracks     bool
	TrackClips bool
}

// Project is the decoded content of a .vpj file.
type Project struct {
	Media      map[string]MediaClip
	MediaOrder []string
	Tracks     map[string]Track
	Placements []Placement
	Sections   Sections
}

// Empty reports whether nothing importable was decoded.
func (p *Project) Empty() bool {
	return len(p.Media) == 0 && len(p.Tracks) == 0 && len(p.Placements) == 0
}

// Builder folds decoded records into a Project. Media and tracks are keyed
// by handle with the last record winning; placements keep file order.
type Builder struct {
	project Project
}

func NewBuilder() *Builder {
	return &Builder{project: Project{
		Media:  make(map[string]MediaClip),
		Tracks: make(map[string]Track),
	}}
}

// AddMedia accepts a clips record carrying both a handle and a path.
func (b *Builder) AddMedia(fields map[string]string) bool {
	h, hasHandle := fields[KeyHandle]
	path, hasPath := fields[KeyPath]
	if !hasHandle || !hasPath {
		return false
	}
	if _, seen := b.project.Media[h]; !seen {
		b.project.MediaOrder = append(b.project.MediaOrder, h)
	}
	b.project.Media[h] = MediaClip{Handle: h, Path: path, Attrs: fields}
	return true
}

// AddTrack accepts a tracks record carrying both a handle and a type.
func (b *Builder) AddTrack(fields map[string]string) bool {
	h, hasHandle := fields[KeyHandle]
	typ, hasType := fields[KeyType]
	if !hasHandle || !hasType {
		return false
	}
	b.project.Tracks[h] = Track{Handle: h, Type: typ, Name: fields[KeyName], Attrs: fields}
	return true
}

// AddPlacement accepts a trackclips record referencing both a media clip
// and a track. The placement's own handle is optional.
func (b *Builder) AddPlacement(fields map[string]string) bool {
	orig, hasOrig := fields[KeyOriginalClip]
	track, hasTrack := fields[KeyTrack]
	if !hasOrig || !hasTrack {
		return false
	}
	linked, ok := fields[KeyLinked]
	if !ok {
		linked = Unlinked
	}
	b.project.Placements = append(b.project.Placements, Placement{
		Handle:       fields[KeyHandle],
		OriginalClip: orig,
		Track:        track,
		Linked:       linked,
		Offset:       valueOr(fields, KeyOffset, "0"),
		In:           valueOr(fields, KeyIn, "0"),
		Out:          valueOr(fields, KeyOut, "0"),
		Attrs:        fields,
	})
	return true
}

// Project returns the folded project.
func (b *Builder) Project() *Project {
	p := b.project
	return &p
}

func valueOr(fields map[string]string, key, fallback string) string {
	if v, ok := fields[key]; ok {
		return v
	}
	return fallback
}
