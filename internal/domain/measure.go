package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseMeasure parses a number the way an inspector types it: surrounding
// whitespace ignored, decimal comma accepted. An empty string is not a number.
func ParseMeasure(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatMeasure renders a value with the given number of decimals using the
// decimal comma of the form.
func FormatMeasure(v float64, decimals int) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', decimals, 64), ".", ",")
}

// FormatDeviation renders a tolerance deviation in millimeters with an
// explicit sign, e.g. "+0,021".
func FormatDeviation(mm float64) string {
	s := strconv.FormatFloat(mm, 'f', 3, 64)
	if mm >= 0 {
		s = "+" + s
	}
	return strings.ReplaceAll(s, ".", ",")
}

// decimalPattern matches the first signed decimal number in a text, with
// either decimal separator.
var decimalPattern = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)

// FirstDecimal extracts the first signed decimal number from free text, such
// as a manually overridden dimension label.
func FirstDecimal(text string) (float64, bool) {
	m := decimalPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	return ParseMeasure(m)
}

// Target computes the SOLL value: the nominal size plus the arithmetic
// mid-point of the tolerance band.
func Target(nominal, upper, lower float64) float64 {
	return nominal + (upper+lower)/2
}

// TargetString computes the SOLL value from display strings. Empty tolerance
// fields count as zero. A nominal that is empty or does not parse, or a
// non-empty tolerance that does not parse, yields the placeholder.
func TargetString(nominal, upper, lower string) string {
	n, ok := ParseMeasure(nominal)
	if !ok {
		return Placeholder
	}
	u, ok := parseOrZero(upper)
	if !ok {
		return Placeholder
	}
	l, ok := parseOrZero(lower)
	if !ok {
		return Placeholder
	}
	return FormatMeasure(Target(n, u, l), 4)
}

func parseOrZero(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	return ParseMeasure(s)
}
