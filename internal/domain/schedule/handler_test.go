package schedule

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo) {
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(NewService(NewMemoryRepo(), doctor.NewService(doctor.NewMemoryRepo(), nil))), e
}

func TestHandler_Create(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"doctor_name":"Dr. Cruz","date":"2024-06-03","time":"14:30"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"time":"14:30"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_Create_Validation(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2024-06-03","time":"2pm"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	err := h.Create(e.NewContext(req, httptest.NewRecorder()))
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(verr.Error(), "doctor_name is required") || !strings.Contains(verr.Error(), "time must be a time in HH:MM format") {
		t.Errorf("unexpected message: %s", verr.Error())
	}
}

func TestHandler_List_Empty(t *testing.T) {
	h, e := newTestHandler()
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("List: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty list, got %s", rec.Body.String())
	}
}
