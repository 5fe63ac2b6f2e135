package dxf

import "messprotokoll/internal/domain"

// Entity is any drawing entity the reader understands. Entities the reader
// does not model are skipped during parsing.
type Entity interface {
	entity()
}

// Line is a straight segment.
type Line struct {
	From domain.Point
	To   domain.Point
}

// Text is a single-line TEXT entity.
type Text struct {
	Value  string
	Insert domain.Point
}

// MText is a multi-line MTEXT entity with inline formatting stripped.
type MText struct {
	Value  string
	Insert domain.Point
}

// Insert is a block reference placed at an insertion point.
type Insert struct {
	BlockName string
	At        domain.Point
}

// Dimension is a dimension annotation. Measurement is NaN when the drawing
// carries no computed value (group 42); OverrideText holds manually
// overridden dimension text (group 1, "<>" means "use the measurement").
// Each point has a presence flag because drawings may omit any of the
// definition groups; an absent point must not count as geometry at the
// origin.
type Dimension struct {
	BlockName    string
	OverrideText string
	Measurement  float64
	Defpoint     domain.Point
	HasDefpoint  bool
	Defpoint2    domain.Point
	HasDefpoint2 bool
	Defpoint3    domain.Point
	HasDefpoint3 bool
	TextMidpoint domain.Point
	HasMidpoint  bool
}

func (Line) entity()      {}
func (Text) entity()      {}
func (MText) entity()     {}
func (Insert) entity()    {}
func (Dimension) entity() {}
