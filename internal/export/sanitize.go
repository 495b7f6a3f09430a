package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/heimdex/heimdex-editor/internal/timeline"
)

const (
	maxClipNameLen = 160
	maxTitleLen    = 120
)

// ClipName is the "FROM CLIP NAME" of an event: the source file name
// without its extension, or the clip id when nothing printable is left.
func ClipName(c timeline.Clip) string {
	base := filepath.Base(c.SourcePath)
	if name := cleanName(strings.TrimSuffix(base, filepath.Ext(base)), maxClipNameLen); name != "" {
		return name
	}
	return c.ID
}

// Title is the EDL title, which is also the export file's base name.
func Title(projectName string) string {
	if title := cleanName(projectName, maxTitleLen); title != "" {
		return title
	}
	return defaultTitle
}

// cleanName keeps letters, digits and a few separators, turns every other
// printable rune into '_', drops control runes and folds whitespace runs
// into one space.
func cleanName(s string, maxLen int) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune("-_.,()", r):
			return r
		default:
			return '_'
		}
	}, s)

	name := strings.Join(strings.Fields(mapped), " ")
	if runes := []rune(name); maxLen > 0 && len(runes) > maxLen {
		name = strings.TrimSpace(string(runes[:maxLen]))
	}
	return name
}

// ValidateOutputDir requires dir to be an existing directory given as a
// clean path without ".." elements. Every failure wraps
// ErrInvalidOutputDir.
func ValidateOutputDir(dir string) error {
	switch {
	case strings.TrimSpace(dir) == "":
		return fmt.Errorf("%w: output directory is required", ErrInvalidOutputDir)
	case slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), ".."):
		return fmt.Errorf("%w: %s contains path traversal", ErrInvalidOutputDir, dir)
	case filepath.Clean(dir) != dir:
		return fmt.Errorf("%w: %s is not a clean path", ErrInvalidOutputDir, dir)
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s does not exist", ErrInvalidOutputDir, dir)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrInvalidOutputDir, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidOutputDir, dir)
	}
	return nil
}
