package llm

import (
	"strings"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

const analysisPromptHead = "\nAct as a commercial real estate analyst. I have uploaded the following deal document or information:\n\n"

const analysisPromptTail = `
Based on the document and request, provide:
- A deal summary
- Key financial terms (price, cap rate, NOI, value-add potential)
- Red flags or things to consider
- Suggestions for improvement or negotiation
- Calculate renovation ROI assuming $8,000 per unit in CapEx and rent bump of $150/unit
`

// BuildAnalysisPrompt renders the analyst prompt around the first limit runes
// of the document text. A non-positive limit uses constants.DefaultPromptTextLimit.
func BuildAnalysisPrompt(goal, text string, limit int) string {
	if limit <= 0 {
		limit = constants.DefaultPromptTextLimit
	}
	if r := []rune(text); len(r) > limit {
		text = string(r[:limit])
	}

	var b strings.Builder
	b.WriteString(analysisPromptHead)
	b.WriteString(text)
	b.WriteString("...\n\nThe user asked: \"")
	b.WriteString(goal)
	b.WriteString("\"\n")
	b.WriteString(analysisPromptTail)
	return b.String()
}

// BuildRequestPrompt is BuildAnalysisPrompt plus a block listing the detected metrics.
func BuildRequestPrompt(req AnalysisRequest, limit int) string {
	p := BuildAnalysisPrompt(req.Goal, req.DocumentText, limit)
	if req.Metrics.Empty() {
		return p
	}
	var b strings.Builder
	b.WriteString(p)
	b.WriteString("\nDetected metrics (rule-based, may be incomplete):\n")
	for _, m := range req.Metrics.Entries() {
		b.WriteString("- ")
		b.WriteString(string(m.Label))
		b.WriteString(": ")
		b.WriteString(m.Value)
		b.WriteString("\n")
	}
	return b.String()
}
