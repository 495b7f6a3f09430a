package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"control runes dropped", " A\nB\rC\tD\x00 ", 100, "A B C D"},
		{"allowed separators kept", "Az09 -_.,()", 100, "Az09 -_.,()"},
		{"disallowed replaced", "bad<>|\"name", 100, "bad____name"},
		{"whitespace runs folded", "beach   day  01", 100, "beach day 01"},
		{"unicode letters kept", "Strand Über", 100, "Strand Über"},
		{"truncated to max runes", "abcdefghijklmnopqrstuvwxyz", 10, "abcdefghij"},
		{"truncation trims trailing space", "abcd efgh", 5, "abcd"},
		{"nothing printable", "\x00\x01", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanName(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("cleanName(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestCleanName_NoControlRunesSurvive(t *testing.T) {
	got := cleanName("line\none\x7f", 100)
	if strings.ContainsAny(got, "\n\x7f") {
		t.Fatalf("cleanName() kept control runes: %q", got)
	}
}

func TestClipName(t *testing.T) {
	c := timeline.Clip{ID: "clip-1", SourcePath: "/media/Beach Day <final>.mp4"}
	if got := ClipName(c); got != "Beach Day _final_" {
		t.Errorf("ClipName() = %q", got)
	}

	c = timeline.Clip{ID: "clip-2", SourcePath: "/media/\x01.mov"}
	if got := ClipName(c); got != "clip-2" {
		t.Errorf("ClipName() fallback = %q, want clip-2", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("My Cut: v2"); got != "My Cut_ v2" {
		t.Errorf("Title() = %q", got)
	}
	if got := Title("   "); got != defaultTitle {
		t.Errorf("Title(blank) = %q, want %q", got, defaultTitle)
	}
	if got := Title(strings.Repeat("x", 200)); len(got) != maxTitleLen {
		t.Errorf("len(Title(long)) = %d, want %d", len(got), maxTitleLen)
	}
}

func TestValidateOutputDir(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		name    string
		dir     string
		wantErr bool
	}{
		{"existing directory", tmp, false},
		{"blank", "  ", true},
		{"traversal", "/tmp/../etc", true},
		{"unclean", tmp + "/./", true},
		{"missing", filepath.Join(tmp, "missing"), true},
		{"not a directory", file, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputDir(tt.dir)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateOutputDir(%q) error = %v, want nil", tt.dir, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidOutputDir) {
				t.Fatalf("ValidateOutputDir(%q) error = %v, want ErrInvalidOutputDir", tt.dir, err)
			}
		})
	}
}
