package domain

import "strings"

// ToleranceEntry is one row of the ISO tolerance-fit table. Deviations are
// stored in micrometers; the size range is exclusive at the lower bound and
// inclusive at the upper bound. The JSON field names follow the side-car
// table format.
type ToleranceEntry struct {
	FitClass         string  `json:"toleranzklasse"`
	LowerLimit       float64 `json:"lowerlimit"`
	UpperLimit       float64 `json:"upperlimit"`
	UpperDeviationUm float64 `json:"es"`
	LowerDeviationUm float64 `json:"ei"`
}

// Matches reports whether the entry covers the nominal size under the given
// fit label. The label comparison is case-insensitive; the range test is
// lower < size <= upper.
func (e ToleranceEntry) Matches(nominal float64, fit string) bool {
	return strings.EqualFold(e.FitClass, fit) &&
		e.LowerLimit < nominal && nominal <= e.UpperLimit
}

// Deviations returns the entry's deviations converted to millimeters.
func (e ToleranceEntry) Deviations() (upper, lower float64) {
	return e.UpperDeviationUm / 1000, e.LowerDeviationUm / 1000
}
