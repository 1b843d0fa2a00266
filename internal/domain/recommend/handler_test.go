package recommend

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/rxengine/internal/domain/patient"
	"github.com/clinic/rxengine/internal/platform/auth"
	"github.com/clinic/rxengine/internal/platform/middleware"
	"github.com/clinic/rxengine/internal/platform/validator"
)

func newTestHandler(catalog *fakeCatalog, patients *fakePatients) (*Handler, *echo.Echo) {
	svc := newTestService(catalog, patients, nil)
	h := NewHandler(svc)
	e := echo.New()
	e.Validator = validator.New()
	return h, e
}

func postJSON(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_SuggestMedicines(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	c, rec := postJSON(e, `{"diagnosis":"hypertension","patient_age":70}`)

	if err := h.SuggestMedicines(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var out []MedicineSuggestion
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Lisinopril" {
		t.Errorf("unexpected suggestions: %+v", out)
	}
}

func TestHandler_SuggestMedicines_EmptyIsArray(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	c, rec := postJSON(e, `{}`)

	if err := h.SuggestMedicines(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %s", rec.Body.String())
	}
}

func TestHandler_SuggestMedicines_InvalidAge(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	c, _ := postJSON(e, `{"diagnosis":"pain","patient_age":-4}`)

	if code := httpCode(t, h.SuggestMedicines(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_SuggestMedicines_CatalogDown(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{err: errors.New("dial tcp: refused")}, nil)
	c, _ := postJSON(e, `{"diagnosis":"pain"}`)

	if code := httpCode(t, h.SuggestMedicines(c)); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
}

func TestHandler_SuggestDosage(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	c, rec := postJSON(e, `{"medicine_name":"Amoxicillin","patient_age":10}`)

	if err := h.SuggestDosage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []DosageSuggestion
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 3 || out[1].Dosage != "250mg" {
		t.Errorf("unexpected dosages: %+v", out)
	}
}

func TestHandler_SuggestDosage_MissingName(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	c, _ := postJSON(e, `{"patient_age":10}`)

	if code := httpCode(t, h.SuggestDosage(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_CheckInteractions(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	c, rec := postJSON(e, `{"medications":["Warfarin","Aspirin"]}`)

	if err := h.CheckInteractions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []DrugInteractionWarning
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Severity != SeverityModerate {
		t.Errorf("unexpected warnings: %+v", out)
	}
}

func TestHandler_CheckInteractions_BadBody(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	c, _ := postJSON(e, `{"medications":"Warfarin"}`)

	if code := httpCode(t, h.CheckInteractions(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_CheckInteractions_StreamedBodyTooLarge(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	body := `{"medications":["` + strings.Repeat("Warfarin", 64) + `"]}`
	c, _ := postJSON(e, body)
	c.Request().ContentLength = -1

	err := middleware.BodyLimit("100")(h.CheckInteractions)(c)
	if code := httpCode(t, err); code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", code)
	}
}

func TestHandler_OptimizePrescription(t *testing.T) {
	pid := uuid.New()
	patients := &fakePatients{profiles: map[uuid.UUID]*patient.Profile{pid: {}}}
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, patients)
	body := `{"patient_id":"` + pid.String() + `","prescription":{"items":[{"medicine_name":"Paracetamol"},{"medicine_name":"Paracetamol"}]}}`
	c, rec := postJSON(e, body)

	if err := h.OptimizePrescription(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out PrescriptionOptimization
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "Paracetamol") {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
}

func TestHandler_OptimizePrescription_Validation(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)

	bodies := map[string]string{
		"missing patient": `{"prescription":{"items":[{"medicine_name":"Aspirin"}]}}`,
		"missing items":   `{"patient_id":"x","prescription":{}}`,
		"blank item name": `{"patient_id":"x","prescription":{"items":[{"medicine_name":"  "}]}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c, _ := postJSON(e, body)
			if code := httpCode(t, h.OptimizePrescription(c)); code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", code)
			}
		})
	}
}

func TestHandler_RoutesRequireClinicalRole(t *testing.T) {
	h, e := newTestHandler(&fakeCatalog{meds: testCatalog()}, nil)
	api := e.Group("/api/v1")
	api.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithRoles(c.Request().Context(), "nurse")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	h.RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/medicines", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
