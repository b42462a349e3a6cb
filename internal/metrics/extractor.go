// Package metrics derives a small set of deal figures from free-form document text.
//
// Extraction is rule based and deterministic: a fixed set of patterns picks out the
// asking price, unit count, NOI, cap rate and rent-roll lines, and a fixed set of
// underwriting heuristics fills in the figures that can be derived from them.
package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

// ws is the Unicode whitespace class; Go's \s is ASCII only.
const ws = `[\s\x0b\x1c-\x1f\x85\p{Z}]`

var (
	rePrice    = regexp.MustCompile(`\$` + ws + `?[\d,]+(?:\.\d{2})?`)
	reUnits    = regexp.MustCompile(`(?i)(\d{1,3})` + ws + `+(unit|units)`)
	reNOI      = regexp.MustCompile(`(?i)NOI` + ws + `*[:=]?` + ws + `*\$?([\d,]+(?:\.\d{2})?)`)
	reCapRate  = regexp.MustCompile(`(?i)Cap` + ws + `*Rate` + ws + `*[:=]?` + ws + `*(\d{1,2}\.\d{1,2})%`)
	reRentRoll = regexp.MustCompile(`(?i)(\d{1,3})` + ws + `+sqft` + ws + `+@` + ws + `+\$?(\d+(\.\d{1,2})?)`)
)

// Underwriting assumptions.
const (
	NOIShareOfGross  = 0.65
	OpExShareOfGross = 0.35
	CapExPerUnit     = 8000
	MonthsPerYear    = 12
)

// figure is a parsed number that may be absent.
type figure struct {
	value float64
	ok    bool
}

// usable mirrors the underwriting rule that a zero figure carries no information.
func (f figure) usable() bool { return f.ok && f.value != 0 }

// RentRollEntry is one "<sqft> sqft @ $<rate>" line; Rate is monthly per square foot.
type RentRollEntry struct {
	SqFt int
	Rate float64
}

func (e RentRollEntry) Monthly() float64 { return float64(e.SqFt) * e.Rate }

// Extract scans text and returns every metric it can detect or derive.
// It never fails: missing or malformed figures are simply left out.
func Extract(text string) MetricSet {
	var s MetricSet

	price := parseFigure(rePrice.FindString(text))
	if price.ok {
		s.set(constants.AskingPrice, FormatCurrency(price.value))
	}

	units, hasUnits := detectUnits(text)
	if hasUnits {
		s.set(constants.Units, units)
	}

	noiMatch := reNOI.FindStringSubmatch(text)
	var noi figure
	if noiMatch != nil {
		noi = parseFigure(noiMatch[1])
		if noi.ok {
			s.set(constants.NOI, FormatCurrency(noi.value))
		}
	}

	capMatch := reCapRate.FindStringSubmatch(text)
	var capRate figure
	if capMatch != nil {
		capRate = parseFigure(capMatch[1])
		if capRate.ok {
			s.set(constants.CapRate, FormatPercent(capRate.value))
		}
	}

	// A detected figure always beats the derived one: the competing derivation is
	// skipped whenever its pattern matched, even if the number failed to parse.
	if noi.usable() && price.usable() && capMatch == nil {
		s.set(constants.EstimatedCapRate, FormatPercent(noi.value/price.value*100))
	}
	if capRate.usable() && price.usable() && noiMatch == nil {
		s.set(constants.EstimatedNOI, FormatCurrency(capRate.value/100*price.value))
	}

	if noi.usable() {
		gross := noi.value / NOIShareOfGross
		s.set(constants.EstimatedOpEx, FormatCurrency(gross*OpExShareOfGross))
	}

	if hasUnits {
		if n, err := strconv.Atoi(units); err == nil {
			s.set(constants.EstimatedCapEx, FormatCurrency(float64(n*CapExPerUnit)))
		}
	}

	if roll := RentRoll(text); len(roll) > 0 {
		var monthly float64
		for _, e := range roll {
			monthly += e.Monthly()
		}
		s.set(constants.DetectedRentRollEntries, strconv.Itoa(len(roll)))
		s.set(constants.EstimatedGrossMonthlyRent, FormatCurrency(monthly))
		s.set(constants.EstimatedAnnualRent, FormatCurrency(monthly*MonthsPerYear))
	}

	return s
}

// RentRoll returns every well-formed rent-roll line in text, in order of appearance.
func RentRoll(text string) []RentRollEntry {
	matches := reRentRoll.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]RentRollEntry, 0, len(matches))
	for _, m := range matches {
		sqft, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rate, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, RentRollEntry{SqFt: sqft, Rate: rate})
	}
	return out
}

func detectUnits(text string) (string, bool) {
	m := reUnits.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// isSpace is unicode.IsSpace plus the separators Python's str.isspace also accepts.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Z, r) || (r >= 0x1c && r <= 0x1f)
}

func cleanNumber(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || isSpace(r) {
			return -1
		}
		return r
	}, raw)
}

func parseFigure(raw string) figure {
	if raw == "" {
		return figure{}
	}
	v, err := strconv.ParseFloat(cleanNumber(raw), 64)
	if err != nil {
		return figure{}
	}
	return figure{value: v, ok: true}
}
