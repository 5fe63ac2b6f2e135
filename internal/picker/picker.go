// Package picker finds the drawing annotation nearest to a pick point.
//
// Two stateless queries run against the loaded drawing snapshot: dimension
// picking, which decomposes every dimension into its rendered primitives
// (text anchor, leader and extension lines) and reports the resolved numeric
// measurement of the closest one, and text picking, which finds the nearest
// TEXT/MTEXT entity by insertion point, descending through block references.
//
// A pick that matches nothing within the search radius reports no hit; a
// stray click far from any annotation is normal usage, not an error.
package picker

import (
	"fmt"
	"math"
	"strings"

	"messprotokoll/internal/domain"
	"messprotokoll/internal/dxf"
)

// maxInsertDepth bounds block-reference recursion against cyclic drawings.
const maxInsertDepth = 8

// DimensionHit is the result of a dimension pick.
type DimensionHit struct {
	// Value is the resolved measurement formatted to 4 decimal places.
	Value string `json:"value"`
	// Measurement is the raw resolved value.
	Measurement float64 `json:"measurement"`
	// Distance is the hit distance in drawing units.
	Distance float64 `json:"distance"`
}

// TextHit is the result of a text pick.
type TextHit struct {
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// PickDimension finds the dimension closest to the pick point within radius
// and resolves its numeric measurement. The second return value is false
// when no dimension qualifies, including when the nearest one carries no
// resolvable value.
func PickDimension(doc *dxf.Document, at domain.Point, radius float64) (DimensionHit, bool) {
	if doc == nil || radius <= 0 {
		return DimensionHit{}, false
	}

	best := math.Inf(1)
	var bestDim *dxf.Dimension
	for _, dim := range doc.Dimensions() {
		dim := dim
		d := dimensionDistance(doc, dim, at)
		if d < radius && d < best {
			best = d
			bestDim = &dim
		}
	}
	if bestDim == nil {
		return DimensionHit{}, false
	}

	value, ok := resolveValue(doc, *bestDim)
	if !ok {
		return DimensionHit{}, false
	}
	return DimensionHit{
		Value:       fmt.Sprintf("%.4f", value),
		Measurement: value,
		Distance:    best,
	}, true
}

// dimensionDistance returns the minimum distance from the pick point to any
// rendered primitive of the dimension.
func dimensionDistance(doc *dxf.Document, dim dxf.Dimension, at domain.Point) float64 {
	best := math.Inf(1)

	if dim.HasMidpoint {
		best = math.Min(best, at.Distance(dim.TextMidpoint))
	}
	if dim.HasDefpoint {
		best = math.Min(best, at.Distance(dim.Defpoint))
	}

	if block := doc.Block(dim.BlockName); block != nil {
		for _, e := range block.Entities {
			switch v := e.(type) {
			case dxf.Line:
				best = math.Min(best, at.DistanceToSegment(v.From, v.To))
			case dxf.Text:
				best = math.Min(best, at.Distance(v.Insert))
			case dxf.MText:
				best = math.Min(best, at.Distance(v.Insert))
			}
		}
	} else {
		// No render block: fall back to the extension-line definition
		// points. Absent points stay out of the candidate set so a
		// dimension can never be picked at the drawing origin.
		if dim.HasDefpoint2 {
			best = math.Min(best, at.Distance(dim.Defpoint2))
		}
		if dim.HasDefpoint3 {
			best = math.Min(best, at.Distance(dim.Defpoint3))
		}
	}
	return best
}

// resolveValue resolves a dimension's numeric measurement. Drawings may
// carry manually-overridden dimension text instead of a computed value, so
// the chain is: computed measurement, then the first decimal number in the
// override text, then the first decimal number in the rendered label.
func resolveValue(doc *dxf.Document, dim dxf.Dimension) (float64, bool) {
	if !math.IsNaN(dim.Measurement) {
		return dim.Measurement, true
	}

	if override := strings.TrimSpace(dim.OverrideText); override != "" && override != "<>" {
		if v, ok := domain.FirstDecimal(override); ok {
			return v, true
		}
	}

	if block := doc.Block(dim.BlockName); block != nil {
		for _, e := range block.Entities {
			var label string
			switch v := e.(type) {
			case dxf.Text:
				label = v.Value
			case dxf.MText:
				label = v.Value
			default:
				continue
			}
			if v, ok := domain.FirstDecimal(label); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// PickText finds the TEXT or MTEXT entity whose insertion point is closest
// to the pick point within radius, descending into block references with
// their insertion offsets applied. The reported text is trimmed of
// surrounding whitespace.
func PickText(doc *dxf.Document, at domain.Point, radius float64) (TextHit, bool) {
	if doc == nil || radius <= 0 {
		return TextHit{}, false
	}

	best := math.Inf(1)
	var bestText string
	var found bool

	consider := func(text string, insert domain.Point) {
		d := at.Distance(insert)
		if d < radius && d < best {
			best = d
			bestText = strings.TrimSpace(text)
			found = true
		}
	}

	var walk func(entities []dxf.Entity, offset domain.Point, depth int)
	walk = func(entities []dxf.Entity, offset domain.Point, depth int) {
		if depth > maxInsertDepth {
			return
		}
		for _, e := range entities {
			switch v := e.(type) {
			case dxf.Text:
				consider(v.Value, v.Insert.Add(offset))
			case dxf.MText:
				consider(v.Value, v.Insert.Add(offset))
			case dxf.Insert:
				if block := doc.Block(v.BlockName); block != nil {
					walk(block.Entities, offset.Add(v.At), depth+1)
				}
			}
		}
	}

	walk(doc.Entities, domain.Point{}, 0)

	if !found {
		return TextHit{}, false
	}
	return TextHit{Text: bestText, Distance: best}, true
}
