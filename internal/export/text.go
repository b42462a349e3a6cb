package export

import (
	"strings"

	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
)

// AnalysisTXT is the plain-text download: the narrative as written by the
// model, or the detected metrics when there is no narrative.
func AnalysisTXT(a *entity.Analysis) []byte {
	if n := a.NarrativeText(); n != "" {
		return []byte(n + "\n")
	}
	var b strings.Builder
	b.WriteString("Detected Deal Metrics\n")
	if a.Metrics.Empty() {
		b.WriteString("(none detected)\n")
	}
	for _, m := range a.Metrics.Entries() {
		b.WriteString(string(m.Label))
		b.WriteString(": ")
		b.WriteString(m.Value)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
