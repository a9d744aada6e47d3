package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/pkg/response"
)

// RequestTimeout puts a deadline on the request context and runs the
// handler on the calling goroutine. Only work that watches the context
// stops at the deadline: the Postgres and Mongo adapters do, the memory
// store does not. If the deadline has passed when the handler returns and
// nothing was written yet, the response is a 504 envelope.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return response.Fail(c, http.StatusGatewayTimeout, "request processing exceeded the allowed time limit")
			}
			return err
		}
	}
}
