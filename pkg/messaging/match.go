package messaging

import (
	"regexp"
	"strings"
)

// compilePattern turns a topic filter into an anchored regexp. A `+` level
// matches exactly one level, a trailing `#` matches one or more; every other
// level matches literally.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "/")
	quoted := make([]string, len(parts))
	for i, part := range parts {
		switch {
		case part == "+":
			quoted[i] = "[^/]+"
		case part == "#" && i == len(parts)-1:
			quoted[i] = ".+"
		default:
			quoted[i] = regexp.QuoteMeta(part)
		}
	}
	return regexp.Compile("^" + strings.Join(quoted, "/") + "$")
}

// MatchTopic reports whether a concrete topic matches a filter.
func MatchTopic(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(topic)
}
