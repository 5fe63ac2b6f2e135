package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"

	"messprotokoll/internal/picker"
	"messprotokoll/internal/service"
)

// maxDrawingBytes caps DXF uploads. Production drawings for this shop
// floor are well under this.
const maxDrawingBytes = 64 << 20

// DrawingHandler handles drawing upload and pick requests
type DrawingHandler struct {
	svc *service.DrawingService
}

// NewDrawingHandler creates a new drawing handler
func NewDrawingHandler(svc *service.DrawingService) *DrawingHandler {
	return &DrawingHandler{svc: svc}
}

// LoadDrawing parses an uploaded DXF and makes it the active drawing
func (h *DrawingHandler) LoadDrawing(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "drawing.dxf"
	}

	info, err := h.svc.Load(filepath.Base(name), io.LimitReader(r.Body, maxDrawingBytes))
	if err != nil {
		log.Printf("Failed to load drawing %q: %v", name, err)
		writeError(w, "Failed to load drawing", err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, info, http.StatusOK)
}

// GetDrawing returns metadata about the active drawing
func (h *DrawingHandler) GetDrawing(w http.ResponseWriter, r *http.Request) {
	info := h.svc.Current()
	if info == nil {
		writeError(w, "No drawing loaded", "", http.StatusNotFound)
		return
	}
	writeJSON(w, info, http.StatusOK)
}

type pickRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	RadiusPx float64 `json:"radius_px"`
	Scale    float64 `json:"scale"`
	OffsetX  float64 `json:"offset_x"`
	OffsetY  float64 `json:"offset_y"`
}

func (p pickRequest) transform() picker.Transform {
	t := picker.Transform{Scale: p.Scale, OffsetX: p.OffsetX, OffsetY: p.OffsetY}
	if t.Scale == 0 {
		t = picker.Identity
	}
	return t
}

// PickDimension looks up the dimension nearest to a clicked point
func (h *DrawingHandler) PickDimension(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	hit, ok, err := h.svc.PickDimension(req.X, req.Y, req.RadiusPx, req.transform())
	if err != nil {
		if errors.Is(err, service.ErrNoDrawing) {
			writeError(w, "No drawing loaded", "", http.StatusConflict)
			return
		}
		writeError(w, "Pick failed", err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		// Nothing in range is not an error. The client leaves the
		// field untouched, mirroring a click on empty canvas.
		writeJSON(w, map[string]any{"hit": false}, http.StatusOK)
		return
	}
	writeJSON(w, map[string]any{"hit": true, "value": hit.Value, "distance": hit.Distance}, http.StatusOK)
}

// PickText looks up the text entity nearest to a clicked point
func (h *DrawingHandler) PickText(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	hit, ok, err := h.svc.PickText(req.X, req.Y, req.RadiusPx, req.transform())
	if err != nil {
		if errors.Is(err, service.ErrNoDrawing) {
			writeError(w, "No drawing loaded", "", http.StatusConflict)
			return
		}
		writeError(w, "Pick failed", err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		writeJSON(w, map[string]any{"hit": false}, http.StatusOK)
		return
	}
	writeJSON(w, map[string]any{"hit": true, "text": hit.Text, "distance": hit.Distance}, http.StatusOK)
}
