package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(svc), e
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func as(req *http.Request, userID, role string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), userID, "", role))
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	h, e := newTestHandler()

	body := `{"username":"maria","email":"maria@clinic.ph","password":"s3cretpass","role":"receptionist"}`
	rec := httptest.NewRecorder()
	if err := h.Register(e.NewContext(jsonRequest(http.MethodPost, body), rec)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password field: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	login := `{"email":"maria@clinic.ph","password":"s3cretpass"}`
	if err := h.Login(e.NewContext(jsonRequest(http.MethodPost, login), rec)); err != nil {
		t.Fatalf("Login: %v", err)
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Data.AccessToken == "" || resp.Data.TokenType != "Bearer" {
		t.Errorf("unexpected login response: %s", rec.Body.String())
	}
}

func TestHandler_Register_DoctorProfileValidation(t *testing.T) {
	h, e := newTestHandler()
	body := `{"username":"drjose","email":"jose@clinic.ph","password":"s3cretpass","role":"doctor","doctor":{"specialization":"Surgery"}}`
	err := h.Register(e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder()))

	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	users, _ := h.svc.List(context.Background(), Filter{})
	if len(users) != 0 {
		t.Errorf("expected no users, got %d", len(users))
	}
}

func TestHandler_Login_MissingIdentifier(t *testing.T) {
	h, e := newTestHandler()
	err := h.Login(e.NewContext(jsonRequest(http.MethodPost, `{"password":"x"}`), httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_Get_SelfOrAdmin(t *testing.T) {
	h, e := newTestHandler()
	reg, err := h.svc.Register(context.Background(), receptionist())
	if err != nil {
		t.Fatal(err)
	}
	id := reg.User.ID

	tests := []struct {
		name     string
		callerID string
		role     string
		wantCode int
	}{
		{"self", id, auth.RoleReceptionist, http.StatusOK},
		{"admin", "someone", auth.RoleAdmin, http.StatusOK},
		{"other", "someone", auth.RoleDoctor, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(as(httptest.NewRequest(http.MethodGet, "/", nil), tt.callerID, tt.role), rec)
			c.SetParamNames("id")
			c.SetParamValues(id)

			err := h.Get(c)
			if tt.wantCode == http.StatusOK {
				if err != nil || rec.Code != http.StatusOK {
					t.Errorf("expected 200, got %d (%v)", rec.Code, err)
				}
				return
			}
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tt.wantCode {
				t.Errorf("expected %d, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestHandler_Update_SelfCannotChangeRole(t *testing.T) {
	h, e := newTestHandler()
	reg, _ := h.svc.Register(context.Background(), receptionist())

	c := e.NewContext(as(jsonRequest(http.MethodPut, `{"role":"admin"}`), reg.User.ID, auth.RoleReceptionist), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(reg.User.ID)

	if err := h.Update(c); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestHandler_ChangePassword_SelfNeedsCurrent(t *testing.T) {
	h, e := newTestHandler()
	reg, _ := h.svc.Register(context.Background(), receptionist())
	id := reg.User.ID

	c := e.NewContext(as(jsonRequest(http.MethodPut, `{"new_password":"another-pass"}`), id, auth.RoleReceptionist), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.ChangePassword(c); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}

	rec := httptest.NewRecorder()
	c = e.NewContext(as(jsonRequest(http.MethodPut, `{"new_password":"another-pass"}`), "admin-id", auth.RoleAdmin), rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("admin reset: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Password updated successfully") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_Me(t *testing.T) {
	h, e := newTestHandler()
	reg, _ := h.svc.Register(context.Background(), receptionist())

	rec := httptest.NewRecorder()
	c := e.NewContext(as(httptest.NewRequest(http.MethodGet, "/", nil), reg.User.ID, auth.RoleReceptionist), rec)
	if err := h.Me(c); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"username":"maria"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	he, ok := h.Me(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %v", he)
	}
}

func TestHandler_Delete(t *testing.T) {
	h, e := newTestHandler()
	reg, _ := h.svc.Register(context.Background(), receptionist())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(reg.User.ID)
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(reg.User.ID)
	if err := h.Delete(c); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
