package event

import "strings"

// Wildcard segments.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator separates topic segments.
	Separator = "."
)

func segments(t string) []string {
	if t == "" {
		return nil
	}
	return strings.Split(t, Separator)
}

// Match reports whether topic matches pattern.
func Match(pattern, topic string) bool {
	if pattern == "" || topic == "" {
		return false
	}
	return matchSegments(segments(pattern), segments(topic))
}

func matchSegments(pattern, topic []string) bool {
	if len(pattern) == 0 {
		return len(topic) == 0
	}
	switch head := pattern[0]; head {
	case WildcardMulti:
		// Try consuming 0, 1, 2, ... topic segments.
		for i := 0; i <= len(topic); i++ {
			if matchSegments(pattern[1:], topic[i:]) {
				return true
			}
		}
		return false
	case WildcardSingle:
		return len(topic) > 0 && matchSegments(pattern[1:], topic[1:])
	default:
		return len(topic) > 0 && head == topic[0] && matchSegments(pattern[1:], topic[1:])
	}
}

// ValidPattern reports whether pattern is a well-formed subscription:
// non-empty segments, wildcards only as whole segments.
func ValidPattern(pattern string) bool {
	if pattern == "" {
		return false
	}
	for _, seg := range segments(pattern) {
		if seg == "" {
			return false
		}
		if seg != WildcardSingle && seg != WildcardMulti && strings.Contains(seg, "*") {
			return false
		}
	}
	return true
}
