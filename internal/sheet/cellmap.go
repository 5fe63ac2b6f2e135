// Package sheet writes protocols into a pre-formatted spreadsheet template
// and reads them back.
//
// The cell layout is not hard-coded: a side-car YAML document maps logical
// field names (customer, order, per-slot nominal/fit/tolerances/target, ...)
// to cell coordinates in a named sheet of the template workbook. A missing
// or invalid mapping disables spreadsheet save/load; it never takes the rest
// of the tool down.
package sheet

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"messprotokoll/internal/domain"
)

// SlotCells maps one measurement slot to its cells.
type SlotCells struct {
	Nominal    string `yaml:"nominal"`
	ISOFit     string `yaml:"iso_fit"`
	Instrument string `yaml:"instrument"`
	Upper      string `yaml:"upper"`
	Lower      string `yaml:"lower"`
	Target     string `yaml:"target"`
}

// HeaderCells maps the protocol header fields to their cells. Empty entries
// are simply not written.
type HeaderCells struct {
	Customer         string `yaml:"customer"`
	Order            string `yaml:"order"`
	Position         string `yaml:"position"`
	Date             string `yaml:"date"`
	DrawingNumber    string `yaml:"drawing_number"`
	SurfaceTreatment string `yaml:"surface_treatment"`
	Remarks          string `yaml:"remarks"`
}

// CellMap is the parsed cell-mapping document.
type CellMap struct {
	Sheet  string      `yaml:"sheet"`
	Header HeaderCells `yaml:"header"`
	Slots  []SlotCells `yaml:"slots"`
}

// LoadCellMap reads and validates a cell-mapping file.
func LoadCellMap(path string) (*CellMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cell map: %w", err)
	}

	var m CellMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse cell map %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cell map %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks sheet name, slot count and that every mapped cell
// reference is well-formed.
func (m *CellMap) Validate() error {
	if m.Sheet == "" {
		return fmt.Errorf("missing sheet name")
	}
	if len(m.Slots) != domain.TotalMeasurements {
		return fmt.Errorf("expected %d slot mappings, got %d", domain.TotalMeasurements, len(m.Slots))
	}

	check := func(name, cell string) error {
		if cell == "" {
			return nil
		}
		if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
			return fmt.Errorf("field %s: bad cell reference %q", name, cell)
		}
		return nil
	}

	header := []struct{ name, cell string }{
		{"customer", m.Header.Customer},
		{"order", m.Header.Order},
		{"position", m.Header.Position},
		{"date", m.Header.Date},
		{"drawing_number", m.Header.DrawingNumber},
		{"surface_treatment", m.Header.SurfaceTreatment},
		{"remarks", m.Header.Remarks},
	}
	for _, f := range header {
		if err := check(f.name, f.cell); err != nil {
			return err
		}
	}

	for i, slot := range m.Slots {
		cells := []struct{ name, cell string }{
			{"nominal", slot.Nominal},
			{"iso_fit", slot.ISOFit},
			{"instrument", slot.Instrument},
			{"upper", slot.Upper},
			{"lower", slot.Lower},
			{"target", slot.Target},
		}
		for _, f := range cells {
			if err := check(fmt.Sprintf("slot %d %s", i+1, f.name), f.cell); err != nil {
				return err
			}
		}
	}
	return nil
}
