package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
)

// Normalize collapses noisy whitespace. Line breaks are kept; runs of blank lines
// collapse to one. Digits are never rewritten, since downstream parsing reads them.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
