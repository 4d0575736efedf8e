package cascade

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePath converts a dotted key path such as "search.contexts.0.name" into
// segments. Components consisting only of digits become array indexes.
func ParsePath(path string) ([]Segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("key path is empty")
	}
	parts := strings.Split(path, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("key path %q contains an empty segment", path)
		}
		if i, err := strconv.Atoi(part); err == nil && i >= 0 && part[0] != '+' {
			segments = append(segments, Index(i))
			continue
		}
		segments = append(segments, Property(part))
	}
	return segments, nil
}
