package user

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/validate"
	"github.com/clinic/clinic/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	a := api.Group("/auth")
	a.POST("/login", h.Login)
	a.GET("/me", h.Me)
	a.POST("/register", h.Register, auth.RequireRole(auth.RoleAdmin))

	u := api.Group("/users")
	u.GET("", h.List, auth.RequireRole(auth.RoleAdmin))
	u.GET("/:id", h.Get)
	u.PUT("/:id", h.Update)
	u.DELETE("/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
	u.PUT("/:id/password", h.ChangePassword)
}

// LoginRequest accepts an email or a username as the identifier.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password" validate:"required"`
}

func (r LoginRequest) identifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	default:
		return r.Username
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username      string          `json:"username" validate:"required,min=3,max=50"`
	Email         string          `json:"email" validate:"required,email"`
	Password      string          `json:"password" validate:"required,min=8,max=72"`
	Role          string          `json:"role" validate:"required,oneof=admin doctor receptionist"`
	FirstName     string          `json:"first_name" validate:"max=100"`
	LastName      string          `json:"last_name" validate:"max=100"`
	ContactNumber string          `json:"contact_number" validate:"max=30"`
	Doctor        *doctor.Profile `json:"doctor"`
}

type PasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.identifier() == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email or username is required")
	}
	res, err := h.svc.Login(c.Request().Context(), req.identifier(), req.Password)
	if err != nil {
		return err
	}
	return response.OK(c, res)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	reg, err := h.svc.Register(c.Request().Context(), RegisterInput{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		ContactNumber: req.ContactNumber,
		Doctor:        req.Doctor,
	})
	if err != nil {
		return err
	}
	return response.Created(c, reg)
}

func (h *Handler) Me(c echo.Context) error {
	id := auth.UserIDFromContext(c.Request().Context())
	if id == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	p, err := h.svc.Me(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, p)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), Filter{Role: c.QueryParam("role")})
	if err != nil {
		return err
	}
	return response.OK(c, response.List(items))
}

func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	if !auth.IsSelfOrAdmin(c.Request().Context(), id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to view this user")
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, u)
}

func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if !auth.IsSelfOrAdmin(ctx, id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to update this user")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&patch); err != nil {
		return err
	}
	u, err := h.svc.Update(ctx, id, patch, auth.RoleFromContext(ctx) == auth.RoleAdmin)
	if err != nil {
		return err
	}
	return response.OK(c, u)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if !auth.IsSelfOrAdmin(ctx, id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to change this password")
	}
	var req PasswordRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	// Admins resetting someone else's password skip the current-password check.
	asAdmin := auth.RoleFromContext(ctx) == auth.RoleAdmin && auth.UserIDFromContext(ctx) != id
	if err := h.svc.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword, asAdmin); err != nil {
		return err
	}
	return response.Message(c, "Password updated successfully")
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, "User deleted successfully")
}
