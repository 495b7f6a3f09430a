package vpj

import (
	"net/url"
	"strings"
)

// ParseLine splits one record line into its key/value fields.
//
// The line is split on '&' and every piece once on its first '='. Pieces
// without '=' are skipped. Values are percent-decoded with Unescape, so a
// malformed escape keeps the raw text. A key repeated on the same line
// keeps its last value. ParseLine never fails.
func ParseLine(line string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(strings.TrimSpace(line), "&") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		fields[key] = Unescape(value)
	}
	return fields
}

// Unescape percent-decodes s and returns s unchanged when it is not a valid
// escape sequence. '+' is kept literally: VideoPad writes spaces as %20.
func Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
