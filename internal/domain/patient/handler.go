package patient

import (
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
	read := api.Group("/patients", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	write := api.Group("/patients", auth.RequireRole(auth.RoleReceptionist))
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}

// CreateRequest is the body of POST /patients.
type CreateRequest struct {
	FirstName     string    `json:"first_name" validate:"required,max=100"`
	MiddleName    string    `json:"middle_name" validate:"max=100"`
	LastName      string    `json:"last_name" validate:"required,max=100"`
	Sex           string    `json:"sex" validate:"required,oneof=male female"`
	BirthDate     string    `json:"birth_date" validate:"required,date"`
	CivilStatus   string    `json:"civil_status" validate:"max=20"`
	ContactNumber string    `json:"contact_number" validate:"max=30"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Occupation    string    `json:"occupation" validate:"max=100"`
	Guardian      *Guardian `json:"guardian"`
	Address       *Address  `json:"address"`
}

func (r CreateRequest) toPatient() Patient {
	return Patient{
		FirstName: r.FirstName, MiddleName: r.MiddleName, LastName: r.LastName,
		Sex: r.Sex, BirthDate: r.BirthDate, CivilStatus: r.CivilStatus,
		ContactNumber: r.ContactNumber, Email: r.Email, Occupation: r.Occupation,
		Guardian: r.Guardian, Address: r.Address,
	}
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), Filter{LastName: c.QueryParam("last_name")})
	if err != nil {
		return err
	}
	return response.OK(c, response.List(items))
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, p)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), req.toPatient())
	if err != nil {
		return err
	}
	return response.Created(c, p)
}

func (h *Handler) Update(c echo.Context) error {
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return validate.BindError(err)
	}
	if err := c.Validate(&patch); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return response.OK(c, p)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return response.Message(c, "Patient deleted successfully")
}
