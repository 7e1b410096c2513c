package reimbursement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newScenarioRequest(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reimbursement/scenario", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CalculateScenario(t *testing.T) {
	h := NewHandler(newTestReimbursement())

	c, rec := newScenarioRequest(t, `{"code":"27447","siteOfService":"HOPD","deviceCost":5000}`)
	if err := h.CalculateScenario(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result ScenarioResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Margin != 6639 || result.Classification != Profitable {
		t.Errorf("unexpected result: margin=%v classification=%s", result.Margin, result.Classification)
	}
}

func TestHandler_CalculateScenario_ValidationErrorShape(t *testing.T) {
	h := NewHandler(newTestReimbursement())

	c, _ := newScenarioRequest(t, `{"code":"","siteOfService":"orbit"}`)
	err := h.CalculateScenario(c)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
	msg, ok := he.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("expected structured message, got %T", he.Message)
	}
	problems, ok := msg["errors"].([]string)
	if !ok || len(problems) != 2 {
		t.Errorf("expected 2 problems, got %v", msg["errors"])
	}
}

func TestHandler_CalculateScenario_UnknownCode(t *testing.T) {
	h := NewHandler(newTestReimbursement())

	c, _ := newScenarioRequest(t, `{"code":"00000","siteOfService":"HOPD"}`)
	err := h.CalculateScenario(c)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandler_CalculateScenario_BadBody(t *testing.T) {
	h := NewHandler(newTestReimbursement())

	c, _ := newScenarioRequest(t, `{"deviceCost":"lots"}`)
	err := h.CalculateScenario(c)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_CompareAllSites(t *testing.T) {
	h := NewHandler(newTestReimbursement())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reimbursement/compare/27447?deviceCost=5000", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("code")
	c.SetParamValues("27447")

	if err := h.CompareAllSites(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cmp Comparison
	if err := json.Unmarshal(rec.Body.Bytes(), &cmp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(cmp.Comparisons) != 4 || cmp.BestSite.SiteKey != "IPPS" {
		t.Errorf("unexpected comparison: %+v", cmp)
	}
	if cmp.DeviceCost != 5000 {
		t.Errorf("expected device cost echoed, got %v", cmp.DeviceCost)
	}
}

func TestHandler_GetSites(t *testing.T) {
	h := NewHandler(newTestReimbursement())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reimbursement/sites", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetSites(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Sites      []Site                           `json:"sites"`
		Thresholds map[Classification]ThresholdInfo `json:"thresholds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Sites) != 4 {
		t.Errorf("expected 4 sites, got %d", len(resp.Sites))
	}
	if len(resp.Thresholds) != 3 {
		t.Errorf("expected 3 threshold bands, got %d", len(resp.Thresholds))
	}
}
