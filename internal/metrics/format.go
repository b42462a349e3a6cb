package metrics

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatCurrency renders v as "$1,234,567.89". Rounding happens on the
// decimal representation so amounts beyond int64 keep every digit.
func FormatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	whole, cents, _ := strings.Cut(s, ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + "$" + s
	}
	return sign + "$" + humanize.BigComma(n) + "." + cents
}

// FormatPercent renders v (already scaled to 0..100) as "6.50%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}
