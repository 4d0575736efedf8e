package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path     string
		expected []Segment
	}{
		{"ui.theme", []Segment{Property("ui"), Property("theme")}},
		{"search.contexts.0.name", []Segment{Property("search"), Property("contexts"), Index(0), Property("name")}},
		{"extensions", []Segment{Property("extensions")}},
		{"a.007", []Segment{Property("a"), Index(7)}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParsePathRejectsEmptySegments(t *testing.T) {
	for _, path := range []string{"", " ", "a..b", ".a", "a."} {
		t.Run("\""+path+"\"", func(t *testing.T) {
			_, err := ParsePath(path)
			assert.Error(t, err)
		})
	}
}
