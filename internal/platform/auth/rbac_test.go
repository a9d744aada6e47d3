package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRole(req *http.Request, userID, role string) *http.Request {
	return req.WithContext(WithIdentity(req.Context(), userID, "someone", role))
}

func TestRequireRole_Allowed(t *testing.T) {
	e := echo.New()
	req := contextWithRole(httptest.NewRequest(http.MethodGet, "/", nil), "u1", RoleDoctor)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(RoleDoctor, RoleReceptionist)(okHandler)(c)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_AdminAlwaysAllowed(t *testing.T) {
	e := echo.New()
	req := contextWithRole(httptest.NewRequest(http.MethodGet, "/", nil), "u1", RoleAdmin)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := RequireRole(RoleDoctor)(okHandler)(c); err != nil {
		t.Errorf("expected admin to pass, got %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	e := echo.New()
	req := contextWithRole(httptest.NewRequest(http.MethodGet, "/", nil), "u1", RoleReceptionist)
	c := e.NewContext(req, httptest.NewRecorder())

	err := RequireRole(RoleDoctor)(okHandler)(c)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err := RequireRole(RoleDoctor)(okHandler)(c); err == nil {
		t.Error("expected anonymous request to be forbidden")
	}
}

func TestIsSelfOrAdmin(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		target string
		want   bool
	}{
		{"self", WithIdentity(context.Background(), "u1", "a", RoleReceptionist), "u1", true},
		{"other", WithIdentity(context.Background(), "u1", "a", RoleReceptionist), "u2", false},
		{"admin", WithIdentity(context.Background(), "u1", "a", RoleAdmin), "u2", true},
		{"anonymous", context.Background(), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSelfOrAdmin(tt.ctx, tt.target); got != tt.want {
				t.Errorf("IsSelfOrAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}
