package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.POST("/patients", h.ListPatientsOrdered)
	g.GET("/patient/:id", h.GetPatient)
	g.PUT("/patient", h.CreatePatient)
	g.PUT("/patient/:id", h.UpdatePatient)
	g.DELETE("/patient/:id", h.DeletePatient)
}

func (h *Handler) ListPatients(c echo.Context) error {
	items, err := h.svc.ListPatients(c.Request().Context(), DefaultListOrder())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch patients")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPatientsOrdered(c echo.Context) error {
	var order ListOrder
	if err := c.Bind(&order); err != nil {
		return bindError(err)
	}
	items, err := h.svc.ListPatients(c.Request().Context(), order)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch patients")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch patient")
	}
	return c.JSON(http.StatusOK, p)
}

// CreatePatient answers 404 when the insert yields no row, matching what
// existing clients expect.
func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return bindError(err)
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "Failed to create patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var u Update
	if err := c.Bind(&u); err != nil {
		return bindError(err)
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), c.Param("id"), &u)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalid):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update patient")
	}
	return c.JSON(http.StatusOK, p)
}

// DeletePatient returns the removed row, or an empty 200 when nothing matched.
func (h *Handler) DeletePatient(c echo.Context) error {
	p, err := h.svc.DeletePatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusOK)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete patient")
	}
	return c.JSON(http.StatusOK, p)
}

// bindError maps a Bind failure to 400, keeping the 413 a size-limited
// body reports.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
