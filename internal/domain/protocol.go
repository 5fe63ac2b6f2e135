package domain

import (
	"fmt"
	"strings"
	"time"
)

// TotalMeasurements is the fixed number of measurement slots per protocol.
const TotalMeasurements = 18

// Placeholder is rendered for any field that cannot be computed.
const Placeholder = "---"

// Instrument options offered by the form. The list is advisory; a protocol
// may carry any free-text instrument name.
var Instruments = []string{
	"",
	"optisch",
	"Messschieber",
	"Bügelmessschraube",
	"Höhenmessgerät",
	"3D-Messmaschine",
}

// CommonFits is the ISO fit-class shortlist offered by the form.
var CommonFits = []string{
	"", "H6", "H7", "H8", "H9", "H11", "G7", "F7", "E9", "D10", "P7",
	"h6", "h7", "h9", "h11", "g6", "f7", "e8", "d9", "k6", "js6", "s7",
}

// MeasurementSlot is one entry of the protocol form. All values are display
// strings; a decimal comma is tolerated everywhere a number is expected.
type MeasurementSlot struct {
	Index          int    `json:"index"`
	Nominal        string `json:"nominal"`
	ISOFit         string `json:"iso_fit,omitempty"`
	Instrument     string `json:"instrument,omitempty"`
	UpperDeviation string `json:"upper_deviation,omitempty"`
	LowerDeviation string `json:"lower_deviation,omitempty"`
	Target         string `json:"target,omitempty"`
}

// RecomputeTarget derives the SOLL value from the slot's nominal value and
// tolerance deviations. Empty tolerance fields count as zero; a nominal that
// does not parse yields the placeholder.
func (s *MeasurementSlot) RecomputeTarget() {
	s.Target = TargetString(s.Nominal, s.UpperDeviation, s.LowerDeviation)
}

// Protocol is one measurement protocol: header data plus a fixed set of
// measurement slots.
type Protocol struct {
	ID               string    `json:"id"`
	Customer         string    `json:"customer,omitempty"`
	Order            string    `json:"order,omitempty"`
	Position         string    `json:"position,omitempty"`
	Date             string    `json:"date,omitempty"`
	DrawingNumber    string    `json:"drawing_number,omitempty"`
	SurfaceTreatment string    `json:"surface_treatment,omitempty"`
	Remarks          string    `json:"remarks,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Slots [TotalMeasurements]MeasurementSlot `json:"slots"`
}

// NewProtocol creates an empty protocol with initialized slot indices.
func NewProtocol(id string) *Protocol {
	now := time.Now()
	p := &Protocol{
		ID:        id,
		Date:      now.Format("02.01.2006"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range p.Slots {
		p.Slots[i].Index = i
	}
	return p
}

// Slot returns the slot at index, or nil when the index is out of range.
func (p *Protocol) Slot(index int) *MeasurementSlot {
	if index < 0 || index >= TotalMeasurements {
		return nil
	}
	return &p.Slots[index]
}

// ExportName builds the spreadsheet file name from drawing number, order and
// position, falling back to the protocol ID when all three are empty.
func (p *Protocol) ExportName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.DrawingNumber, p.Order, p.Position} {
		if s = sanitizeNamePart(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, p.ID)
	}
	return fmt.Sprintf("Messprotokoll_%s.xlsx", strings.Join(parts, "_"))
}

// sanitizeNamePart strips characters that are unsafe in file names.
func sanitizeNamePart(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		case ' ':
			return '_'
		}
		return r
	}, s)
}
