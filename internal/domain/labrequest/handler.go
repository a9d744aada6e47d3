package labrequest

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
	staff := api.Group("/lab-requests", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	staff.GET("", h.List)
	staff.GET("/:id", h.Get)
	staff.POST("", h.Create)
	staff.PATCH("/:id/cancel", h.Cancel)

	api.PUT("/lab-requests/results", h.UpdateResults, auth.RequireRole(auth.RoleDoctor))
	api.DELETE("/lab-requests/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

// CreateRequest is the body of POST /lab-requests.
type CreateRequest struct {
	ID            string            `json:"id" validate:"omitempty,max=64"`
	PatientID     string            `json:"patient_id" validate:"required"`
	RequestedBy   string            `json:"requested_by" validate:"omitempty,uuid"`
	Tests         map[string]string `json:"tests" validate:"required,min=1"`
	DateRequested string            `json:"date_requested" validate:"omitempty,date"`
	Remarks       string            `json:"remarks" validate:"max=2000"`
}

// ResultsRequest is the body of PUT /lab-requests/results. A "status" key
// inside results is treated like the top-level status field.
type ResultsRequest struct {
	PatientID string            `json:"patient_id" validate:"required"`
	Date      string            `json:"date" validate:"required,date"`
	Results   map[string]string `json:"results"`
	DateTaken *string           `json:"date_taken" validate:"omitempty,date"`
	Status    *string           `json:"status"`
	Remarks   *string           `json:"remarks" validate:"omitempty,max=2000"`
}

func (r ResultsRequest) update() ResultsUpdate {
	u := ResultsUpdate{DateTaken: r.DateTaken, Status: r.Status, Remarks: r.Remarks}
	u.Results = make(map[string]string, len(r.Results))
	for k, v := range r.Results {
		if k == "status" {
			if u.Status == nil {
				st := v
				u.Status = &st
			}
			continue
		}
		u.Results[k] = v
	}
	return u
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{
		PatientID:     c.QueryParam("patient_id"),
		Status:        c.QueryParam("status"),
		DateRequested: c.QueryParam("date"),
	}
	if f.DateRequested != "" && !validate.IsDate(f.DateRequested) {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be a date in YYYY-MM-DD format")
	}
	items, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return response.OK(c, response.List(items))
}

func (h *Handler) Get(c echo.Context) error {
	l, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, l)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	l, err := h.svc.Create(c.Request().Context(), LabRequest{
		ID: req.ID, PatientID: req.PatientID, RequestedBy: req.RequestedBy,
		Tests: req.Tests, DateRequested: req.DateRequested, Remarks: req.Remarks,
	})
	if err != nil {
		return err
	}
	return response.Created(c, l)
}

func (h *Handler) UpdateResults(c echo.Context) error {
	var req ResultsRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	l, err := h.svc.UpdateResults(c.Request().Context(), req.PatientID, req.Date, req.update())
	if err != nil {
		return err
	}
	return response.OK(c, l)
}

func (h *Handler) Cancel(c echo.Context) error {
	l, err := h.svc.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, l)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, "Lab request deleted successfully")
}
