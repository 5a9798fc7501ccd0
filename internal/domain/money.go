package domain

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount as rupees with Indian digit grouping and no
// decimals, e.g. ₹1,299. Non-finite amounts render as "".
func FormatINR(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ""
	}
	s := inrPrinter.Sprint(number.Decimal(amount, number.MaxFractionDigits(0)))
	if strings.HasPrefix(s, "-") {
		return "-₹" + s[1:]
	}
	return "₹" + s
}
