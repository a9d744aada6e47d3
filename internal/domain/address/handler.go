package address

import (
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/pkg/response"
)

type Handler struct {
	dir *Directory
}

func NewHandler(dir *Directory) *Handler {
	return &Handler{dir: dir}
}

// RegisterRoutes mounts the public lookup endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/address")
	g.GET("/provinces", h.ListProvinces)
	g.GET("/cities/:provinceCode", h.ListCities)
	g.GET("/barangays/:cityCode", h.ListBarangays)
}

func (h *Handler) ListProvinces(c echo.Context) error {
	return response.OK(c, h.dir.Provinces())
}

func (h *Handler) ListCities(c echo.Context) error {
	cities, err := h.dir.Cities(c.Param("provinceCode"))
	if err != nil {
		return err
	}
	return response.OK(c, cities)
}

func (h *Handler) ListBarangays(c echo.Context) error {
	barangays, err := h.dir.Barangays(c.Param("cityCode"), c.QueryParam("province"))
	if err != nil {
		return err
	}
	return response.OK(c, barangays)
}
