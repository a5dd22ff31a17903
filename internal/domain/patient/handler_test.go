package patient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/patients/internal/platform/middleware"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	svc, repo := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func seed(t *testing.T, h *Handler, p *Patient) {
	t.Helper()
	if err := h.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_CreatePatient(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"id":"p-1","firstName":"Amy","lastName":"Adams","city":"Austin","state":"TX","dateOfBirth":"1990-04-02T00:00:00Z"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/patient", body), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != "p-1" || p.Status != StatusInquiry || p.Country != DefaultCountry {
		t.Errorf("unexpected created row: %+v", p)
	}
	if p.DateOfBirth == nil || p.DateOfBirth.Year() != 1990 {
		t.Errorf("expected dateOfBirth to round-trip, got %v", p.DateOfBirth)
	}
}

func TestHandler_CreatePatient_BadRequest(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(jsonRequest(http.MethodPut, "/patient", `{"id":"p-1","lastName":"Adams"}`), httptest.NewRecorder())
	if code := httpStatus(t, h.CreatePatient(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_OversizedChunkedBody(t *testing.T) {
	h, repo, e := newTestHandler()
	limit := middleware.BodyLimit("1K")
	body := `{"firstName":"` + strings.Repeat("a", 4096) + `","lastName":"Adams"}`

	routes := map[string]echo.HandlerFunc{
		"create":  h.CreatePatient,
		"update":  h.UpdatePatient,
		"ordered": h.ListPatientsOrdered,
	}
	for name, handler := range routes {
		t.Run(name, func(t *testing.T) {
			req := jsonRequest(http.MethodPut, "/patient", body)
			req.ContentLength = -1
			c := e.NewContext(req, httptest.NewRecorder())
			if code := httpStatus(t, limit(handler)(c)); code != http.StatusRequestEntityTooLarge {
				t.Errorf("expected 413, got %d", code)
			}
		})
	}
	if len(repo.patients) != 0 {
		t.Errorf("oversized create stored %d rows", len(repo.patients))
	}
}

func TestHandler_CreatePatient_InsertFailure(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.failNext = errors.New("constraint violation")

	body := `{"id":"p-1","firstName":"Amy","lastName":"Adams"}`
	c := e.NewContext(jsonRequest(http.MethodPut, "/patient", body), httptest.NewRecorder())
	if code := httpStatus(t, h.CreatePatient(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, _, e := newTestHandler()
	seed(t, h, &Patient{ID: "p-1", FirstName: "Jane", LastName: "Smith"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("p-1")

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if code := httpStatus(t, h.GetPatient(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, _, e := newTestHandler()
	seed(t, h, &Patient{ID: "a", FirstName: "Zoe", LastName: "Z"})
	seed(t, h, &Patient{ID: "b", FirstName: "Amy", LastName: "A"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/patients", nil), rec)
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var items []Patient
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 2 || items[0].ID != "a" {
		t.Errorf("expected createdAt ascending order, got %+v", items)
	}
}

func TestHandler_ListPatientsOrdered(t *testing.T) {
	h, _, e := newTestHandler()
	seed(t, h, &Patient{ID: "a", FirstName: "Amy", LastName: "A"})
	seed(t, h, &Patient{ID: "b", FirstName: "Zoe", LastName: "Z"})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/patients", `{"orderBy":"firstName","asc":false}`), rec)
	if err := h.ListPatientsOrdered(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var items []Patient
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 2 || items[0].FirstName != "Zoe" {
		t.Errorf("expected descending firstName order, got %+v", items)
	}
}

func TestHandler_ListPatientsOrdered_InvalidColumn(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(jsonRequest(http.MethodPost, "/patients", `{"orderBy":"password"}`), httptest.NewRecorder())
	if code := httpStatus(t, h.ListPatientsOrdered(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, _, e := newTestHandler()
	seed(t, h, &Patient{ID: "p-1", FirstName: "Amy", LastName: "Adams"})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/", `{"status":"Active","city":"Boston"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("p-1")

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Status != StatusActive || p.City != "Boston" || p.FirstName != "Amy" {
		t.Errorf("unexpected updated row: %+v", p)
	}
}

func TestHandler_UpdatePatient_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(jsonRequest(http.MethodPut, "/", `{"city":"Boston"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if code := httpStatus(t, h.UpdatePatient(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, repo, e := newTestHandler()
	seed(t, h, &Patient{ID: "p-1", FirstName: "Delete", LastName: "Me"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("p-1")

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.ID != "p-1" {
		t.Errorf("expected deleted row in body, got %s", rec.Body.String())
	}
	if len(repo.patients) != 0 {
		t.Error("expected patient to be removed")
	}
}

func TestHandler_DeletePatient_Missing(t *testing.T) {
	h, _, e := newTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("expected empty 200, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, e := newTestHandler()
	h.RegisterRoutes(e.Group(""))

	want := map[string]bool{
		"GET /patients":       false,
		"POST /patients":      false,
		"GET /patient/:id":    false,
		"PUT /patient":        false,
		"PUT /patient/:id":    false,
		"DELETE /patient/:id": false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}
