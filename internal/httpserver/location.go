package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/transport"
)

type LocationHTTP struct {
	Svc *service.LocationService
}

func (h *LocationHTTP) List(c echo.Context) error {
	out, err := h.Svc.ListActive(c.Request().Context())
	if err != nil {
		return fail(c, "location.list", "list_locations_error", err)
	}
	if out == nil {
		out = []models.ServiceLocation{}
	}
	return success(c, http.StatusOK, "", out)
}

func (h *LocationHTTP) CheckServiceability(c echo.Context) error {
	var req transport.CheckServiceabilityRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "location.check", "check_serviceability_error", err)
	}

	loc, err := h.Svc.CheckServiceability(c.Request().Context(), req.Pincode)
	if err != nil {
		return fail(c, "location.check", "check_serviceability_error", err)
	}
	return success(c, http.StatusOK, "Pincode is serviceable", loc)
}

func (h *LocationHTTP) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "location.get", "get_location_error", err)
	}
	loc, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, "location.get", "get_location_error", err)
	}
	return success(c, http.StatusOK, "", loc)
}

func (h *LocationHTTP) Create(c echo.Context) error {
	var req transport.LocationRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "location.create", "create_location_error", err)
	}

	loc, err := h.Svc.Create(c.Request().Context(), service.LocationInput{
		Pincode:  req.Pincode,
		AreaName: req.AreaName,
		District: req.District,
		State:    req.State,
		Country:  req.Country,
		IsActive: req.IsActive,
	})
	if err != nil {
		return fail(c, "location.create", "create_location_error", err)
	}
	return success(c, http.StatusCreated, "Service location created", loc)
}

func (h *LocationHTTP) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "location.update", "update_location_error", err)
	}
	var req transport.UpdateLocationRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "location.update", "update_location_error", err)
	}

	loc, err := h.Svc.Update(c.Request().Context(), id, service.LocationInput{
		Pincode:  req.Pincode,
		AreaName: req.AreaName,
		District: req.District,
		State:    req.State,
		Country:  req.Country,
		IsActive: req.IsActive,
	})
	if err != nil {
		return fail(c, "location.update", "update_location_error", err)
	}
	return success(c, http.StatusOK, "Service location updated", loc)
}

func (h *LocationHTTP) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "location.delete", "delete_location_error", err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, "location.delete", "delete_location_error", err)
	}
	return success(c, http.StatusOK, "Service location deleted", nil)
}
