package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
)

// AuditEntry is one access record for a clinic resource.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	UserID     string
	Role       string
	Method     string
	Path       string
	Resource   string
	EntityID   string
	Action     string
	StatusCode int
	RemoteIP   string
}

// Audit logs one type=audit event per /api/v1 request. Failed requests are
// recorded with the status the error handler will write.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			resource, entityID := resourceFromPath(req.URL.Path)
			if resource == "" {
				return err
			}

			status := c.Response().Status
			if err != nil {
				status, _ = StatusFor(err)
			}

			ctx := req.Context()
			rid, _ := c.Get("request_id").(string)
			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				RequestID:  rid,
				UserID:     auth.UserIDFromContext(ctx),
				Role:       auth.RoleFromContext(ctx),
				Method:     req.Method,
				Path:       req.URL.Path,
				Resource:   resource,
				EntityID:   entityID,
				Action:     actionFromMethod(req.Method),
				StatusCode: status,
				RemoteIP:   c.RealIP(),
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("entity_id", entry.EntityID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Int("status", entry.StatusCode).
				Str("remote_ip", entry.RemoteIP).
				Time("timestamp", entry.Timestamp).
				Msg("audit")

			return err
		}
	}
}

// resourceFromPath returns the resource collection and entity id of an
// /api/v1 path, e.g. "/api/v1/patients/42" -> ("patients", "42").
func resourceFromPath(path string) (resource, entityID string) {
	const prefix = "/api/v1/"
	if !strings.HasPrefix(path, prefix) {
		return "", ""
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, prefix), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", ""
	}
	resource = parts[0]
	if len(parts) > 1 {
		entityID = parts[1]
	}
	return resource, entityID
}

func actionFromMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "unknown"
	}
}
