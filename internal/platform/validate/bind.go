package validate

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// BindError maps a c.Bind failure to the error a handler returns. A body
// rejected by the size limit keeps its 413; anything else is a 400.
func BindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}
