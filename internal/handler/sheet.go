package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"messprotokoll/internal/codec"
	"messprotokoll/internal/repository"
	"messprotokoll/internal/service"
	"messprotokoll/internal/sheet"
)

// SheetHandler handles xlsx export/import and the codec endpoints.
// cellMap and templatePath may be unset when the workstation has no
// template configured; xlsx routes then answer 503 so the rest of the
// app keeps working.
type SheetHandler struct {
	svc          *service.ProtocolService
	cellMap      *sheet.CellMap
	templatePath string
	exportDir    string
}

// NewSheetHandler creates a new sheet handler
func NewSheetHandler(svc *service.ProtocolService, cellMap *sheet.CellMap, templatePath, exportDir string) *SheetHandler {
	return &SheetHandler{svc: svc, cellMap: cellMap, templatePath: templatePath, exportDir: exportDir}
}

func (h *SheetHandler) ready() error {
	if h.cellMap == nil {
		return errors.New("no cell map configured")
	}
	if h.templatePath == "" {
		return errors.New("no workbook template configured")
	}
	if _, err := os.Stat(h.templatePath); err != nil {
		return fmt.Errorf("workbook template: %w", err)
	}
	return nil
}

// ExportSheet writes a protocol into the workbook template
func (h *SheetHandler) ExportSheet(w http.ResponseWriter, r *http.Request) {
	if err := h.ready(); err != nil {
		writeError(w, "Sheet export unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}

	p, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		writeError(w, "Failed to get protocol", err.Error(), http.StatusInternalServerError)
		return
	}

	path, err := sheet.Save(p, h.cellMap, h.templatePath, h.exportDir)
	if err != nil {
		log.Printf("Failed to export protocol %s: %v", p.ID, err)
		writeError(w, "Failed to export workbook", err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("Exported protocol %s to %s", p.ID, path)
	writeJSON(w, map[string]string{"path": path}, http.StatusOK)
}

// ImportSheet reads an uploaded workbook back into a new protocol
func (h *SheetHandler) ImportSheet(w http.ResponseWriter, r *http.Request) {
	if h.cellMap == nil {
		writeError(w, "Sheet import unavailable", "no cell map configured", http.StatusServiceUnavailable)
		return
	}

	// excelize wants a file on disk, so spool the upload.
	tmp, err := os.CreateTemp("", "messprotokoll-*.xlsx")
	if err != nil {
		writeError(w, "Failed to import workbook", err.Error(), http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(r.Body, maxDrawingBytes)); err != nil {
		tmp.Close()
		writeError(w, "Failed to import workbook", err.Error(), http.StatusBadRequest)
		return
	}
	tmp.Close()

	p, err := sheet.Load(tmp.Name(), h.cellMap)
	if err != nil {
		writeError(w, "Failed to import workbook", err.Error(), http.StatusBadRequest)
		return
	}

	p, err = h.svc.Import(r.Context(), p)
	if err != nil {
		writeError(w, "Failed to store imported protocol", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, p, http.StatusCreated)
}

func codecFor(format string) (interface {
	codec.Importer
	codec.Exporter
}, bool) {
	switch strings.ToLower(format) {
	case "json":
		return codec.NewJSONCodec(), true
	case "yaml", "yml":
		return codec.NewYAMLCodec(), true
	default:
		return nil, false
	}
}

// ExportProtocolFile streams a protocol as a JSON or YAML download
func (h *SheetHandler) ExportProtocolFile(w http.ResponseWriter, r *http.Request) {
	c, ok := codecFor(r.PathValue("format"))
	if !ok {
		writeError(w, "Unknown format", "supported formats: json, yaml", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		writeError(w, "Failed to get protocol", err.Error(), http.StatusInternalServerError)
		return
	}

	name := strings.TrimSuffix(filepath.Base(p.ExportName()), ".xlsx") + "." + c.Format()
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/octet-stream")
	if err := c.Export(p, w); err != nil {
		log.Printf("Failed to export protocol %s as %s: %v", p.ID, c.Format(), err)
	}
}

// ImportProtocolFile reads an uploaded JSON or YAML protocol
func (h *SheetHandler) ImportProtocolFile(w http.ResponseWriter, r *http.Request) {
	c, ok := codecFor(r.PathValue("format"))
	if !ok {
		writeError(w, "Unknown format", "supported formats: json, yaml", http.StatusBadRequest)
		return
	}

	p, err := c.Parse(io.LimitReader(r.Body, maxDrawingBytes))
	if err != nil {
		writeError(w, "Failed to parse protocol file", err.Error(), http.StatusBadRequest)
		return
	}

	p, err = h.svc.Import(r.Context(), p)
	if err != nil {
		writeError(w, "Failed to store imported protocol", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, p, http.StatusCreated)
}
