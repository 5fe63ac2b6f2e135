package service

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"messprotokoll/internal/domain"
	"messprotokoll/internal/dxf"
	"messprotokoll/internal/picker"
)

// ErrNoDrawing is returned when a pick arrives before any drawing is loaded.
var ErrNoDrawing = errors.New("no drawing loaded")

// DrawingService owns the currently loaded drawing. The tool works on one
// drawing at a time; loading a new one replaces the old snapshot.
type DrawingService struct {
	events *EventBus

	mu   sync.RWMutex
	doc  *dxf.Document
	name string
}

// NewDrawingService creates a new drawing service
func NewDrawingService(events *EventBus) *DrawingService {
	return &DrawingService{events: events}
}

// Load parses a drawing and makes it the active snapshot. A parse failure
// leaves the previous drawing in place.
func (s *DrawingService) Load(name string, r io.Reader) (*DrawingInfo, error) {
	doc, err := dxf.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("load drawing %s: %w", name, err)
	}

	s.mu.Lock()
	s.doc = doc
	s.name = name
	s.mu.Unlock()

	info := s.info(doc, name)
	s.events.Publish(Event{Type: EventDrawingLoaded, Payload: info})
	return info, nil
}

// DrawingInfo summarizes the active drawing for clients.
type DrawingInfo struct {
	Name       string      `json:"name"`
	Entities   int         `json:"entities"`
	Dimensions int         `json:"dimensions"`
	Warnings   []string    `json:"warnings,omitempty"`
	Render     *RenderData `json:"render,omitempty"`
}

// RenderData is the flattened geometry the browser canvas draws. Block
// references are expanded so the client needs no block table.
type RenderData struct {
	Lines  []RenderLine `json:"lines,omitempty"`
	Texts  []RenderText `json:"texts,omitempty"`
	Bounds *Bounds      `json:"bounds,omitempty"`
}

// RenderLine is one drawable segment.
type RenderLine struct {
	A domain.Point `json:"a"`
	B domain.Point `json:"b"`
}

// RenderText is one drawable text label.
type RenderText struct {
	Text string       `json:"text"`
	At   domain.Point `json:"at"`
}

// Bounds is the axis-aligned extent of the rendered geometry.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func (s *DrawingService) info(doc *dxf.Document, name string) *DrawingInfo {
	return &DrawingInfo{
		Name:       name,
		Entities:   len(doc.Entities),
		Dimensions: len(doc.Dimensions()),
		Warnings:   doc.Warnings,
		Render:     flatten(doc),
	}
}

// maxRenderDepth bounds block expansion against self-referencing blocks.
const maxRenderDepth = 8

// flatten expands the document into plain segments and labels.
func flatten(doc *dxf.Document) *RenderData {
	rd := &RenderData{}

	var walk func(entities []dxf.Entity, offset domain.Point, depth int)
	walk = func(entities []dxf.Entity, offset domain.Point, depth int) {
		if depth > maxRenderDepth {
			return
		}
		for _, e := range entities {
			switch v := e.(type) {
			case dxf.Line:
				rd.Lines = append(rd.Lines, RenderLine{A: v.From.Add(offset), B: v.To.Add(offset)})
			case dxf.Text:
				rd.Texts = append(rd.Texts, RenderText{Text: v.Value, At: v.Insert.Add(offset)})
			case dxf.MText:
				rd.Texts = append(rd.Texts, RenderText{Text: v.Value, At: v.Insert.Add(offset)})
			case dxf.Insert:
				if b := doc.Block(v.BlockName); b != nil {
					walk(b.Entities, offset.Add(v.At), depth+1)
				}
			case dxf.Dimension:
				if b := doc.Block(v.BlockName); b != nil {
					walk(b.Entities, offset, depth+1)
				}
			}
		}
	}
	walk(doc.Entities, domain.Point{}, 0)

	for _, l := range rd.Lines {
		rd.extend(l.A)
		rd.extend(l.B)
	}
	for _, t := range rd.Texts {
		rd.extend(t.At)
	}
	return rd
}

func (rd *RenderData) extend(p domain.Point) {
	if rd.Bounds == nil {
		rd.Bounds = &Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
		return
	}
	b := rd.Bounds
	b.MinX = min(b.MinX, p.X)
	b.MinY = min(b.MinY, p.Y)
	b.MaxX = max(b.MaxX, p.X)
	b.MaxY = max(b.MaxY, p.Y)
}

// Current returns info about the active drawing, or nil when none is loaded.
func (s *DrawingService) Current() *DrawingInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil
	}
	return s.info(s.doc, s.name)
}

// PickDimension unprojects the screen pick through the view transform and
// finds the nearest dimension. The boolean is false on a miss, which is a
// normal no-op, not an error.
func (s *DrawingService) PickDimension(screenX, screenY, radiusPx float64, t picker.Transform) (picker.DimensionHit, bool, error) {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc == nil {
		return picker.DimensionHit{}, false, ErrNoDrawing
	}

	if radiusPx <= 0 {
		radiusPx = picker.DefaultPickRadiusPixels
	}
	at := t.ToDrawing(screenX, screenY)
	hit, ok := picker.PickDimension(doc, at, t.RadiusToDrawing(radiusPx))
	return hit, ok, nil
}

// PickText is the text-mode counterpart of PickDimension.
func (s *DrawingService) PickText(screenX, screenY, radiusPx float64, t picker.Transform) (picker.TextHit, bool, error) {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc == nil {
		return picker.TextHit{}, false, ErrNoDrawing
	}

	if radiusPx <= 0 {
		radiusPx = picker.DefaultPickRadiusPixels
	}
	at := t.ToDrawing(screenX, screenY)
	hit, ok := picker.PickText(doc, at, t.RadiusToDrawing(radiusPx))
	return hit, ok, nil
}
