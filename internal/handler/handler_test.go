package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"messprotokoll/internal/domain"
	"messprotokoll/internal/repository/sqlite"
	"messprotokoll/internal/service"
	"messprotokoll/internal/tolerance"
)

const drawingFixture = `0
SECTION
2
ENTITIES
0
DIMENSION
10
0.0
20
0.0
11
20.0
21
2.0
42
40.0
0
TEXT
10
50.0
20
50.0
1
Werkstoff: 1.4301
0
ENDSEC
0
EOF
`

func newTestResolver(t *testing.T) *tolerance.Resolver {
	t.Helper()
	dir := t.TempDir()
	table := `[
	  {"toleranzklasse": "H7", "lowerlimit": 6, "upperlimit": 10, "es": 15, "ei": 0}
	]`
	if err := os.WriteFile(filepath.Join(dir, tolerance.TableFile), []byte(table), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}
	r, err := tolerance.Load(dir)
	if err != nil {
		t.Fatalf("failed to load table: %v", err)
	}
	return r
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	resolver := newTestResolver(t)
	events := service.NewEventBus()
	protocols := NewProtocolHandler(service.NewProtocolService(repo, resolver, events), resolver)
	drawings := NewDrawingHandler(service.NewDrawingService(events))
	sheets := NewSheetHandler(service.NewProtocolService(repo, resolver, events), nil, "", ".")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/meta", protocols.Meta)
	mux.HandleFunc("GET /api/protocols", protocols.ListProtocols)
	mux.HandleFunc("POST /api/protocols", protocols.CreateProtocol)
	mux.HandleFunc("GET /api/protocols/{id}", protocols.GetProtocol)
	mux.HandleFunc("PUT /api/protocols/{id}", protocols.UpdateProtocol)
	mux.HandleFunc("DELETE /api/protocols/{id}", protocols.DeleteProtocol)
	mux.HandleFunc("POST /api/protocols/{id}/slots/{index}/fit", protocols.ApplyFit)
	mux.HandleFunc("GET /api/tolerances/resolve", protocols.ResolveTolerance)
	mux.HandleFunc("POST /api/drawing", drawings.LoadDrawing)
	mux.HandleFunc("GET /api/drawing", drawings.GetDrawing)
	mux.HandleFunc("POST /api/drawing/pick/dimension", drawings.PickDimension)
	mux.HandleFunc("POST /api/drawing/pick/text", drawings.PickText)
	mux.HandleFunc("POST /api/protocols/{id}/sheet", sheets.ExportSheet)
	mux.HandleFunc("GET /api/protocols/{id}/file/{format}", sheets.ExportProtocolFile)
	mux.HandleFunc("POST /api/import/{format}", sheets.ImportProtocolFile)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestMeta(t *testing.T) {
	mux := newTestMux(t)

	w := doJSON(t, mux, "GET", "/api/meta", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	meta := decode[struct {
		Slots       int      `json:"slots"`
		Instruments []string `json:"instruments"`
		Fits        []string `json:"fits"`
	}](t, w)
	if meta.Slots != domain.TotalMeasurements {
		t.Errorf("expected %d slots, got %d", domain.TotalMeasurements, meta.Slots)
	}
	if len(meta.Instruments) != len(domain.Instruments) || len(meta.Fits) != len(domain.CommonFits) {
		t.Errorf("expected the domain option lists, got %d instruments / %d fits",
			len(meta.Instruments), len(meta.Fits))
	}
}

func TestProtocolCRUD(t *testing.T) {
	mux := newTestMux(t)

	w := doJSON(t, mux, "POST", "/api/protocols", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body)
	}
	p := decode[*domain.Protocol](t, w)
	if p.ID == "" {
		t.Fatal("expected generated ID")
	}

	p.Customer = "Mustermann GmbH"
	p.Slots[0].Nominal = "8"
	p.Slots[0].ISOFit = "H7"
	w = doJSON(t, mux, "PUT", "/api/protocols/"+p.ID, p)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, mux, "GET", "/api/protocols/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	got := decode[*domain.Protocol](t, w)
	if got.Customer != "Mustermann GmbH" {
		t.Errorf("expected customer to persist, got %q", got.Customer)
	}

	w = doJSON(t, mux, "GET", "/api/protocols", nil)
	list := decode[[]*domain.Protocol](t, w)
	if len(list) != 1 {
		t.Errorf("expected 1 protocol, got %d", len(list))
	}

	w = doJSON(t, mux, "DELETE", "/api/protocols/"+p.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = doJSON(t, mux, "GET", "/api/protocols/"+p.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestApplyFit(t *testing.T) {
	mux := newTestMux(t)

	p := decode[*domain.Protocol](t, doJSON(t, mux, "POST", "/api/protocols", nil))
	p.Slots[2].Nominal = "8"
	p.Slots[2].ISOFit = "h7" // matching is case-insensitive
	doJSON(t, mux, "PUT", "/api/protocols/"+p.ID, p)

	w := doJSON(t, mux, "POST", "/api/protocols/"+p.ID+"/slots/2/fit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	resp := decode[struct {
		Matched  bool             `json:"matched"`
		Protocol *domain.Protocol `json:"protocol"`
	}](t, w)
	if !resp.Matched {
		t.Fatal("expected a tolerance match")
	}
	slot := resp.Protocol.Slots[2]
	if slot.UpperDeviation != "+0,015" || slot.LowerDeviation != "+0,000" {
		t.Errorf("unexpected deviations %q / %q", slot.UpperDeviation, slot.LowerDeviation)
	}
	if slot.Target != "8,0075" {
		t.Errorf("expected target 8,0075, got %q", slot.Target)
	}

	t.Run("miss is not an error", func(t *testing.T) {
		p.Slots[3].Nominal = "100"
		p.Slots[3].ISOFit = "H7"
		doJSON(t, mux, "PUT", "/api/protocols/"+p.ID, p)

		w := doJSON(t, mux, "POST", "/api/protocols/"+p.ID+"/slots/3/fit", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		resp := decode[struct {
			Matched bool `json:"matched"`
		}](t, w)
		if resp.Matched {
			t.Error("expected no match outside table bounds")
		}
	})

	t.Run("bad slot index", func(t *testing.T) {
		w := doJSON(t, mux, "POST", "/api/protocols/"+p.ID+"/slots/99/fit", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestResolveTolerance(t *testing.T) {
	mux := newTestMux(t)

	w := doJSON(t, mux, "GET", "/api/tolerances/resolve?nominal=8&fit=H7", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[struct {
		Found bool    `json:"found"`
		Upper float64 `json:"upper"`
		Lower float64 `json:"lower"`
	}](t, w)
	if !resp.Found || resp.Upper != 0.015 || resp.Lower != 0 {
		t.Errorf("unexpected lookup result %+v", resp)
	}

	w = doJSON(t, mux, "GET", "/api/tolerances/resolve?nominal=8,5&fit=X9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on miss, got %d", w.Code)
	}
	if decode[struct {
		Found bool `json:"found"`
	}](t, w).Found {
		t.Error("expected no match for unknown fit")
	}

	w = doJSON(t, mux, "GET", "/api/tolerances/resolve?nominal=abc&fit=H7", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad nominal, got %d", w.Code)
	}
}

func TestDrawingEndpoints(t *testing.T) {
	mux := newTestMux(t)

	t.Run("no drawing yet", func(t *testing.T) {
		if w := doJSON(t, mux, "GET", "/api/drawing", nil); w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
		w := doJSON(t, mux, "POST", "/api/drawing/pick/dimension", pickRequest{X: 1, Y: 1})
		if w.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", w.Code)
		}
	})

	req := httptest.NewRequest("POST", "/api/drawing?name=teil.dxf", strings.NewReader(drawingFixture))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("load: expected 200, got %d: %s", w.Code, w.Body)
	}

	t.Run("pick dimension", func(t *testing.T) {
		w := doJSON(t, mux, "POST", "/api/drawing/pick/dimension", pickRequest{X: 20, Y: 2, RadiusPx: 50, Scale: 1})
		resp := decode[struct {
			Hit   bool   `json:"hit"`
			Value string `json:"value"`
		}](t, w)
		if !resp.Hit || resp.Value != "40.0000" {
			t.Errorf("unexpected pick result %+v", resp)
		}
	})

	t.Run("pick text", func(t *testing.T) {
		w := doJSON(t, mux, "POST", "/api/drawing/pick/text", pickRequest{X: 50, Y: 50, RadiusPx: 10, Scale: 1})
		resp := decode[struct {
			Hit  bool   `json:"hit"`
			Text string `json:"text"`
		}](t, w)
		if !resp.Hit || resp.Text != "Werkstoff: 1.4301" {
			t.Errorf("unexpected pick result %+v", resp)
		}
	})

	t.Run("pick miss", func(t *testing.T) {
		w := doJSON(t, mux, "POST", "/api/drawing/pick/dimension", pickRequest{X: 9000, Y: 9000, RadiusPx: 50, Scale: 1})
		if decode[struct {
			Hit bool `json:"hit"`
		}](t, w).Hit {
			t.Error("expected a miss far from all dimensions")
		}
	})
}

func TestSheetExportUnavailable(t *testing.T) {
	mux := newTestMux(t)

	p := decode[*domain.Protocol](t, doJSON(t, mux, "POST", "/api/protocols", nil))
	w := doJSON(t, mux, "POST", "/api/protocols/"+p.ID+"/sheet", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without template config, got %d", w.Code)
	}
}

func TestProtocolFileRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	p := decode[*domain.Protocol](t, doJSON(t, mux, "POST", "/api/protocols", nil))
	p.DrawingNumber = "Z-4711"
	p.Slots[0].Nominal = "12,5"
	doJSON(t, mux, "PUT", "/api/protocols/"+p.ID, p)

	w := doJSON(t, mux, "GET", "/api/protocols/"+p.ID+"/file/json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".json") {
		t.Errorf("expected json attachment, got %q", cd)
	}

	req := httptest.NewRequest("POST", "/api/import/json", bytes.NewReader(w.Body.Bytes()))
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, req)
	if w2.Code != http.StatusCreated {
		t.Fatalf("import: expected 201, got %d: %s", w2.Code, w2.Body)
	}
	imported := decode[*domain.Protocol](t, w2)
	if imported.ID == p.ID {
		t.Error("imported protocol must get a fresh ID")
	}
	if imported.Slots[0].Nominal != "12,5" {
		t.Errorf("expected nominal to survive, got %q", imported.Slots[0].Nominal)
	}

	t.Run("unknown format", func(t *testing.T) {
		w := doJSON(t, mux, "GET", "/api/protocols/"+p.ID+"/file/xml", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}
