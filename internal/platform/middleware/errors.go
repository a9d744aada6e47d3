package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/validate"
	"github.com/clinic/clinic/pkg/response"
)

// HTTPErrorHandler writes every error as a {"success": false} envelope.
// Unclassified errors are logged and reported as a generic 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := StatusFor(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = response.Fail(c, status, msg)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

// StatusFor maps an error to an HTTP status and the message shown to the
// client.
func StatusFor(err error) (int, string) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case apperr.KindNotFound:
			return http.StatusNotFound, ae.Error()
		case apperr.KindInvalid:
			return http.StatusBadRequest, ae.Error()
		case apperr.KindConflict:
			return http.StatusConflict, ae.Error()
		case apperr.KindUnauthorized:
			return http.StatusUnauthorized, ae.Error()
		case apperr.KindForbidden:
			return http.StatusForbidden, ae.Error()
		}
	}

	return http.StatusInternalServerError, "internal server error"
}
