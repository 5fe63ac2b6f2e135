package sheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"messprotokoll/internal/domain"
)

// Save copies the template workbook, writes the protocol into the mapped
// cells (merged regions resolve to their anchor cell) and stores the result
// in outDir under a name derived from drawing number, order and position.
// It returns the written file path.
func Save(p *domain.Protocol, m *CellMap, templatePath, outDir string) (string, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	w, err := newMappedSheet(f, m)
	if err != nil {
		return "", err
	}

	w.setString(m.Header.Customer, p.Customer)
	w.setString(m.Header.Order, p.Order)
	w.setString(m.Header.Position, p.Position)
	w.setString(m.Header.Date, p.Date)
	w.setString(m.Header.DrawingNumber, p.DrawingNumber)
	w.setString(m.Header.SurfaceTreatment, p.SurfaceTreatment)
	w.setString(m.Header.Remarks, p.Remarks)

	for i, slot := range p.Slots {
		cells := m.Slots[i]
		w.setMeasure(cells.Nominal, slot.Nominal)
		w.setString(cells.ISOFit, slot.ISOFit)
		w.setString(cells.Instrument, slot.Instrument)
		w.setString(cells.Upper, slot.UpperDeviation)
		w.setString(cells.Lower, slot.LowerDeviation)
		w.setMeasure(cells.Target, slot.Target)
	}
	if w.err != nil {
		return "", fmt.Errorf("write cells: %w", w.err)
	}

	out := filepath.Join(outDir, p.ExportName())
	if err := f.SaveAs(out); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return out, nil
}

// Load performs the inverse read: protocol field values out of a previously
// saved workbook. Numeric cells come back with the decimal comma of the
// form; slot targets are recomputed from the loaded values.
func Load(path string, m *CellMap) (*domain.Protocol, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	w, err := newMappedSheet(f, m)
	if err != nil {
		return nil, err
	}

	p := domain.NewProtocol("")
	p.Customer = w.getString(m.Header.Customer)
	p.Order = w.getString(m.Header.Order)
	p.Position = w.getString(m.Header.Position)
	p.Date = w.getString(m.Header.Date)
	p.DrawingNumber = w.getString(m.Header.DrawingNumber)
	p.SurfaceTreatment = w.getString(m.Header.SurfaceTreatment)
	p.Remarks = w.getString(m.Header.Remarks)

	for i := range p.Slots {
		cells := m.Slots[i]
		slot := &p.Slots[i]
		slot.Nominal = w.getMeasure(cells.Nominal)
		slot.ISOFit = w.getString(cells.ISOFit)
		slot.Instrument = w.getString(cells.Instrument)
		slot.UpperDeviation = w.getString(cells.Upper)
		slot.LowerDeviation = w.getString(cells.Lower)
		slot.RecomputeTarget()
	}
	if w.err != nil {
		return nil, fmt.Errorf("read cells: %w", w.err)
	}
	return p, nil
}

// mappedSheet wraps one sheet of a workbook with merged-cell anchor
// resolution and sticky error handling.
type mappedSheet struct {
	f      *excelize.File
	sheet  string
	merges []mergeRange
	err    error
}

type mergeRange struct {
	startCol, startRow int
	endCol, endRow     int
	anchor             string
}

func newMappedSheet(f *excelize.File, m *CellMap) (*mappedSheet, error) {
	idx, err := f.GetSheetIndex(m.Sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("template has no sheet %q", m.Sheet)
	}

	cells, err := f.GetMergeCells(m.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells: %w", err)
	}

	w := &mappedSheet{f: f, sheet: m.Sheet}
	for _, mc := range cells {
		start, end := mc.GetStartAxis(), mc.GetEndAxis()
		sc, sr, err1 := excelize.CellNameToCoordinates(start)
		ec, er, err2 := excelize.CellNameToCoordinates(end)
		if err1 != nil || err2 != nil {
			continue
		}
		w.merges = append(w.merges, mergeRange{
			startCol: sc, startRow: sr,
			endCol: ec, endRow: er,
			anchor: start,
		})
	}
	return w, nil
}

// anchorOf resolves a cell that falls inside a merged region to the region's
// top-left anchor, which is where values live.
func (w *mappedSheet) anchorOf(cell string) string {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return cell
	}
	for _, m := range w.merges {
		if col >= m.startCol && col <= m.endCol && row >= m.startRow && row <= m.endRow {
			return m.anchor
		}
	}
	return cell
}

func (w *mappedSheet) setString(cell, value string) {
	if cell == "" || w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(w.sheet, w.anchorOf(cell), value)
}

// setMeasure writes a numeric cell when the value parses as a measurement,
// otherwise the raw text (the placeholder stays out entirely).
func (w *mappedSheet) setMeasure(cell, value string) {
	if cell == "" || w.err != nil {
		return
	}
	if value == "" || value == domain.Placeholder {
		return
	}
	if v, ok := domain.ParseMeasure(value); ok {
		w.err = w.f.SetCellValue(w.sheet, w.anchorOf(cell), v)
		return
	}
	w.err = w.f.SetCellValue(w.sheet, w.anchorOf(cell), value)
}

func (w *mappedSheet) getString(cell string) string {
	if cell == "" || w.err != nil {
		return ""
	}
	v, err := w.f.GetCellValue(w.sheet, w.anchorOf(cell))
	if err != nil {
		w.err = err
		return ""
	}
	return strings.TrimSpace(v)
}

// getMeasure reads a cell and normalizes numeric content to the decimal
// comma used by the form.
func (w *mappedSheet) getMeasure(cell string) string {
	s := w.getString(cell)
	if s == "" {
		return ""
	}
	if v, ok := domain.ParseMeasure(s); ok {
		return strings.ReplaceAll(trimFloat(v), ".", ",")
	}
	return s
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
