package constants

import (
	"strings"
)

// Label names one entry of an extracted metric set.
type Label string

const (
	AskingPrice               Label = "Asking Price"
	Units                     Label = "Units"
	NOI                       Label = "NOI"
	CapRate                   Label = "Cap Rate"
	EstimatedCapRate          Label = "Estimated Cap Rate"
	EstimatedNOI              Label = "Estimated NOI"
	EstimatedOpEx             Label = "Estimated OpEx"
	EstimatedCapEx            Label = "Estimated CapEx"
	DetectedRentRollEntries   Label = "Detected Rent Roll Entries"
	EstimatedGrossMonthlyRent Label = "Estimated Gross Monthly Rent"
	EstimatedAnnualRent       Label = "Estimated Annual Rent"
)

// allLabels is in detection/derivation order.
var allLabels = []Label{
	AskingPrice,
	Units,
	NOI,
	CapRate,
	EstimatedCapRate,
	EstimatedNOI,
	EstimatedOpEx,
	EstimatedCapEx,
	DetectedRentRollEntries,
	EstimatedGrossMonthlyRent,
	EstimatedAnnualRent,
}

func AllLabels() []Label {
	out := make([]Label, len(allLabels))
	copy(out, allLabels)
	return out
}

// Canonicalize resolves user input ("cap rate", "capex", "asking_price") to a Label.
func Canonicalize(input string) (Label, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)

	synonyms := map[string]Label{
		"price":                AskingPrice,
		"asking":               AskingPrice,
		"unit count":           Units,
		"net operating income": NOI,
		"caprate":              CapRate,
		"opex":                 EstimatedOpEx,
		"capex":                EstimatedCapEx,
		"rent roll":            DetectedRentRollEntries,
		"monthly rent":         EstimatedGrossMonthlyRent,
		"annual rent":          EstimatedAnnualRent,
	}
	if l, ok := synonyms[normalized]; ok {
		return l, true
	}

	for _, l := range allLabels {
		if normalized == strings.ToLower(string(l)) {
			return l, true
		}
	}
	return "", false
}
