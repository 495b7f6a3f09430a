package importer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"
)

// MaxListedMissing caps how many missing paths the summary spells out.
const MaxListedMissing = 10

const (
	statusImported        = "VideoPad project imported successfully."
	missingFilesTitle     = "Missing Files"
	missingFilesIntroText = "Import completed, but some media files could not be found:"
)

// Summary is what the user is told after an import.
type Summary struct {
	// Status is the one-line status bar text.
	Status string `json:"status"`
	// Message is the missing-files warning, empty when nothing is missing.
	Message string `json:"message,omitempty"`
}

// Summarize builds the user-facing summary of res.
func Summarize(res Result) Summary {
	n := len(res.Missing)
	if n == 0 {
		return Summary{Status: statusImported}
	}

	listed := res.Missing
	if n > MaxListedMissing {
		listed = listed[:MaxListedMissing]
	}

	var b strings.Builder
	b.WriteString(missingFilesIntroText)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(listed, "\n"))
	if n > MaxListedMissing {
		fmt.Fprintf(&b, "\n...and %d more.", n-MaxListedMissing)
	}

	return Summary{
		Status:  fmt.Sprintf("Import complete with %s.", english.Plural(n, "missing file", "")),
		Message: b.String(),
	}
}
