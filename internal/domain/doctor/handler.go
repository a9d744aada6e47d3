package doctor

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

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
	read := api.Group("/doctors", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	write := api.Group("/doctors", auth.RequireRole(auth.RoleAdmin))
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}

// CreateRequest is the body of POST /doctors.
type CreateRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Profile
}

func (h *Handler) List(c echo.Context) error {
	var f Filter
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "active must be true or false")
		}
		f.Active = &active
	}
	items, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return response.OK(c, response.List(items))
}

func (h *Handler) Get(c echo.Context) error {
	d, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	d, err := h.svc.Create(c.Request().Context(), req.UserID, req.Profile)
	if err != nil {
		return err
	}
	return response.Created(c, d)
}

func (h *Handler) Update(c echo.Context) error {
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&patch); err != nil {
		return err
	}
	d, err := h.svc.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, "Doctor deleted successfully")
}
