package vpj

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want map[string]string
	}{
		{
			name: "simple pairs",
			line: "h=12&path=C%3A%5CVideos%5Cintro.mp4",
			want: map[string]string{"h": "12", "path": `C:\Videos\intro.mp4`},
		},
		{
			name: "piece without equals is skipped",
			line: "h=1&garbage&type=2",
			want: map[string]string{"h": "1", "type": "2"},
		},
		{
			name: "value keeps later equals signs",
			line: "h=1&expr=a=b",
			want: map[string]string{"h": "1", "expr": "a=b"},
		},
		{
			name: "duplicate key keeps last value",
			line: "h=1&name=first&name=second",
			want: map[string]string{"h": "1", "name": "second"},
		},
		{
			name: "surrounding whitespace trimmed",
			line: "  h=7&type=1  \t",
			want: map[string]string{"h": "7", "type": "1"},
		},
		{
			name: "plus is literal",
			line: "h=1&name=a+b%20c",
			want: map[string]string{"h": "1", "name": "a+b c"},
		},
		{
			name: "empty value",
			line: "h=1&offset=",
			want: map[string]string{"h": "1", "offset": ""},
		},
		{
			name: "empty line",
			line: "",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLine(tt.line))
		})
	}
}

func TestUnescape_MalformedKeepsRaw(t *testing.T) {
	assert.Equal(t, "100%", Unescape("100%"))
	assert.Equal(t, "%zz/clip.mp4", Unescape("%zz/clip.mp4"))
	assert.Equal(t, "/media/my clip.mp4", Unescape("/media/my%20clip.mp4"))
}
