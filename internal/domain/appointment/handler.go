package appointment

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
	staff := api.Group("/appointments", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	staff.GET("", h.List)
	staff.GET("/:id", h.Get)
	staff.PATCH("/:id", h.UpdateStatus)

	desk := api.Group("/appointments", auth.RequireRole(auth.RoleReceptionist))
	desk.POST("", h.Create)
	desk.PUT("/:id", h.Update)
	desk.DELETE("/:id", h.Delete)
	desk.PATCH("/:id/cancel", h.Cancel)
	desk.PATCH("/:id/confirm", h.Confirm)
}

// CreateRequest is the body of POST /appointments.
type CreateRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
	DoctorID  string `json:"doctor_id" validate:"omitempty,uuid"`
	Reason    string `json:"reason" validate:"required,max=500"`
	Date      string `json:"date" validate:"required,date"`
	Time      string `json:"time" validate:"required,clock"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled confirmed cancelled completed no-show"`
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{
		PatientID: c.QueryParam("patient_id"),
		DoctorID:  c.QueryParam("doctor_id"),
		Status:    c.QueryParam("status"),
		Date:      c.QueryParam("date"),
	}
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
	a, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, a)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := h.svc.Create(c.Request().Context(), Appointment{
		PatientID: req.PatientID, DoctorID: req.DoctorID, Reason: req.Reason,
		Date: req.Date, Time: req.Time, Notes: req.Notes,
	})
	if err != nil {
		return err
	}
	return response.Created(c, a)
}

func (h *Handler) Update(c echo.Context) error {
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&patch); err != nil {
		return err
	}
	a, err := h.svc.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return response.OK(c, a)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return response.OK(c, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	a, err := h.svc.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, a)
}

func (h *Handler) Confirm(c echo.Context) error {
	a, err := h.svc.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, a)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, "Appointment deleted successfully")
}
