package schedule

import (
	"net/http"

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
	read := api.Group("/schedules", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	write := api.Group("/schedules", auth.RequireRole(auth.RoleReceptionist))
	write.POST("", h.Create)
	write.DELETE("/:id", h.Delete)
}

// CreateRequest is the body of POST /schedules.
type CreateRequest struct {
	DoctorID   string `json:"doctor_id" validate:"omitempty,uuid"`
	DoctorName string `json:"doctor_name" validate:"required,max=200"`
	Date       string `json:"date" validate:"required,date"`
	Time       string `json:"time" validate:"required,clock"`
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{DoctorName: c.QueryParam("doctor_name"), Date: c.QueryParam("date")}
	if f.Date != "" && !validate.IsDate(f.Date) {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be a date in YYYY-MM-DD format")
	}
	items, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return response.OK(c, response.List(items))
}

func (h *Handler) Get(c echo.Context) error {
	s, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, s)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.svc.Create(c.Request().Context(), Schedule{
		DoctorID: req.DoctorID, DoctorName: req.DoctorName, Date: req.Date, Time: req.Time,
	})
	if err != nil {
		return err
	}
	return response.Created(c, s)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, "Schedule deleted successfully")
}
