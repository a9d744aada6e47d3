package validate

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestBindError(t *testing.T) {
	tooLarge := echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"oversized body", tooLarge, http.StatusRequestEntityTooLarge},
		{"oversized body wrapped", fmt.Errorf("bind: %w", tooLarge), http.StatusRequestEntityTooLarge},
		{"malformed json", echo.NewHTTPError(http.StatusBadRequest, "Syntax error: offset=1"), http.StatusBadRequest},
		{"unsupported media type", echo.ErrUnsupportedMediaType, http.StatusBadRequest},
		{"plain error", errors.New("unexpected EOF"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var he *echo.HTTPError
			if !errors.As(BindError(tt.err), &he) || he.Code != tt.want {
				t.Fatalf("got %v, want status %d", BindError(tt.err), tt.want)
			}
			if tt.want == http.StatusBadRequest && he.Message != "invalid request body" {
				t.Errorf("message = %v", he.Message)
			}
		})
	}
}
