package newtech

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	h := NewHandler(newTestService(t))
	e := echo.New()
	return h, e
}

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// =========== NTAP Handler Tests ===========

func TestHandler_CalculateNtap_Success(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/ntap/calculate", `{"deviceCost":50000,"drgCode":"001"}`)
	if err := h.CalculateNtap(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var result NtapPayment
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.NtapPayment != 22750 {
		t.Errorf("expected payment 22750, got %v", result.NtapPayment)
	}
}

func TestHandler_CalculateNtap_MissingCost(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/ntap/calculate", `{"drgCode":"001"}`)
	err := h.CalculateNtap(c)
	if err == nil {
		t.Fatal("expected error for missing device cost")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_CalculateNtap_BadBody(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/ntap/calculate", `{not json`)
	if err := h.CalculateNtap(c); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestHandler_CheckNtapEligibility_Success(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/ntap/eligibility",
		`{"deviceName":"CardioStent X","deviceCost":50000,"drgCode":"001","fdaApprovalDate":"2025-06-01"}`)
	if err := h.CheckNtapEligibility(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var result NtapEligibility
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.Status != NeedsReview {
		t.Errorf("expected needs_review, got %s", result.Status)
	}
}

func TestHandler_CheckNtapEligibility_MissingName(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/ntap/eligibility", `{"deviceCost":50000}`)
	err := h.CheckNtapEligibility(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GenerateNtapApplication_Success(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/ntap/application",
		`{"deviceName":"CardioStent X","manufacturer":"Medex","deviceCost":50000,"applicableDRGs":["001"],"fdaApprovalDate":"2025-06-01"}`)
	if err := h.GenerateNtapApplication(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var doc ApplicationDocument
	json.Unmarshal(rec.Body.Bytes(), &doc)
	if doc.DocumentType != "NTAP Application" || doc.Status != "DRAFT" {
		t.Errorf("unexpected document header: %+v", doc)
	}
	if doc.Summary.CompletionStatus.Percentage != 100 {
		t.Errorf("expected complete application, got %d%%", doc.Summary.CompletionStatus.Percentage)
	}
}

func TestHandler_GenerateNtapApplication_MissingManufacturer(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/ntap/application", `{"deviceName":"CardioStent X"}`)
	err := h.GenerateNtapApplication(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ApprovedNtapList(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ntap/approved-list", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ApprovedNtapList(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var list ApprovedList
	json.Unmarshal(rec.Body.Bytes(), &list)
	if list.TotalCount != 2 {
		t.Errorf("expected 2 technologies, got %d", list.TotalCount)
	}
}

func TestHandler_AvailableDRGs(t *testing.T) {
	h, e := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ntap/drgs", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AvailableDRGs(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string][]CodePayment
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body["drgs"]) != 2 {
		t.Errorf("expected 2 DRGs, got %d", len(body["drgs"]))
	}
}

// =========== TPT Handler Tests ===========

func TestHandler_CalculateTpt_Success(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/tpt/calculate", `{"deviceCost":9500,"apcCode":"5193"}`)
	if err := h.CalculateTpt(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var result TptPayment
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.PassThroughPayment != 8336 {
		t.Errorf("expected pass-through 8336, got %v", result.PassThroughPayment)
	}
}

func TestHandler_CheckTptEligibility_MissingCost(t *testing.T) {
	h, e := newTestHandler(t)

	c, _ := postJSON(e, "/api/v1/tpt/eligibility", `{"deviceName":"OcuLens Implant"}`)
	err := h.CheckTptEligibility(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GenerateTptApplication_Success(t *testing.T) {
	h, e := newTestHandler(t)

	c, rec := postJSON(e, "/api/v1/tpt/application",
		`{"deviceName":"OcuLens Implant","manufacturer":"VisionWorks","deviceCost":9500,"applicableAPCs":["5193"]}`)
	if err := h.GenerateTptApplication(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var doc ApplicationDocument
	json.Unmarshal(rec.Body.Bytes(), &doc)
	if doc.DocumentType != "TPT Application" {
		t.Errorf("unexpected document type %q", doc.DocumentType)
	}
	if doc.Summary.CompletionStatus.Status != "In Progress" {
		t.Errorf("expected In Progress, got %q", doc.Summary.CompletionStatus.Status)
	}
}

func TestHandler_NotReady(t *testing.T) {
	svc := NewService(&mockSource{}, testConfig(), zerolog.Nop())
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tpt/approved-list", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ApprovedTptList(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}
