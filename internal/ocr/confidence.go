package ocr

import (
	"regexp"
	"strings"
)

var (
	reDollar   = regexp.MustCompile(`\$\s?\d`)
	reDealTerm = regexp.MustCompile(`\b(noi|cap\s*rate|asking|price|rent|units?|sqft|occupancy|expenses?)\b`)
	reAmount   = regexp.MustCompile(`\b\d{1,3}(,\d{3})+(\.\d{2})?\b|\b\d+\.\d{2}\b`)
)

// heuristicConfidence scores how much the text looks like a deal document.
// Base 0.2; dollar figures, underwriting vocabulary and grouped amounts each add.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if reDollar.MatchString(txtL) {
		score += 0.2
	}
	if reDealTerm.MatchString(txtL) {
		score += 0.2
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
