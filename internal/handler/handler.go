package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"messprotokoll/internal/domain"
	"messprotokoll/internal/repository"
	"messprotokoll/internal/service"
	"messprotokoll/internal/tolerance"
)

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ProtocolHandler handles protocol API requests
type ProtocolHandler struct {
	svc      *service.ProtocolService
	resolver *tolerance.Resolver
}

// NewProtocolHandler creates a new protocol handler
func NewProtocolHandler(svc *service.ProtocolService, resolver *tolerance.Resolver) *ProtocolHandler {
	return &ProtocolHandler{svc: svc, resolver: resolver}
}

// Meta returns the option lists the form offers: measuring instruments and
// the ISO fit shortlist, plus the slot count. Keeping them server-side means
// the frontend never drifts from the domain lists.
func (h *ProtocolHandler) Meta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"slots":       domain.TotalMeasurements,
		"instruments": domain.Instruments,
		"fits":        domain.CommonFits,
	}, http.StatusOK)
}

// ListProtocols returns all protocols
func (h *ProtocolHandler) ListProtocols(w http.ResponseWriter, r *http.Request) {
	protocols, err := h.svc.List(r.Context())
	if err != nil {
		log.Printf("Failed to list protocols: %v", err)
		writeError(w, "Failed to list protocols", err.Error(), http.StatusInternalServerError)
		return
	}
	if protocols == nil {
		protocols = []*domain.Protocol{}
	}
	writeJSON(w, protocols, http.StatusOK)
}

// CreateProtocol creates a new empty protocol
func (h *ProtocolHandler) CreateProtocol(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Create(r.Context())
	if err != nil {
		log.Printf("Failed to create protocol: %v", err)
		writeError(w, "Failed to create protocol", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, p, http.StatusCreated)
}

// GetProtocol returns a single protocol
func (h *ProtocolHandler) GetProtocol(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to get protocol: %v", err)
		writeError(w, "Failed to get protocol", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

// UpdateProtocol replaces a protocol with the submitted form state
func (h *ProtocolHandler) UpdateProtocol(w http.ResponseWriter, r *http.Request) {
	var p domain.Protocol
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	p.ID = r.PathValue("id")

	if err := h.svc.Update(r.Context(), &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to update protocol: %v", err)
		writeError(w, "Failed to update protocol", err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

// DeleteProtocol deletes a protocol
func (h *ProtocolHandler) DeleteProtocol(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to delete protocol: %v", err)
		writeError(w, "Failed to delete protocol", err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyFit resolves the ISO fit of one slot and stores the deviations
func (h *ProtocolHandler) ApplyFit(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, "Invalid slot index", err.Error(), http.StatusBadRequest)
		return
	}

	p, matched, err := h.svc.ApplyFit(r.Context(), r.PathValue("id"), index)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("Failed to apply fit: %v", err)
		writeError(w, "Failed to apply fit", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"matched":  matched,
		"protocol": p,
	}, http.StatusOK)
}

// ResolveTolerance answers a direct table lookup without touching a protocol
func (h *ProtocolHandler) ResolveTolerance(w http.ResponseWriter, r *http.Request) {
	nominal, ok := domain.ParseMeasure(r.URL.Query().Get("nominal"))
	if !ok {
		writeError(w, "Invalid nominal size", "query parameter 'nominal' must be a number", http.StatusBadRequest)
		return
	}
	fit := r.URL.Query().Get("fit")

	dev, found := h.resolver.Resolve(nominal, fit)
	if !found {
		// A miss is normal "no data for this input", not an error.
		writeJSON(w, map[string]any{"found": false}, http.StatusOK)
		return
	}
	writeJSON(w, map[string]any{
		"found": true,
		"upper": dev.Upper,
		"lower": dev.Lower,
	}, http.StatusOK)
}

// Helper methods

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
