package llm

import (
	"regexp"
	"strings"
)

var reOuterFence = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*\\n(.*?)\\n?```$")

// CleanNarrative trims the response and strips a code fence wrapping the whole
// answer, which some models add around markdown.
func CleanNarrative(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if m := reOuterFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	return s
}
