package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/transport"
)

type AddressHTTP struct {
	Svc *service.AddressService
}

func (h *AddressHTTP) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "address.list", "list_addresses_error", err)
	}
	out, err := h.Svc.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, "address.list", "list_addresses_error", err)
	}
	if out == nil {
		out = []models.Address{}
	}
	return success(c, http.StatusOK, "", out)
}

func (h *AddressHTTP) Get(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "address.get", "get_address_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "address.get", "get_address_error", err)
	}
	a, err := h.Svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, "address.get", "get_address_error", err)
	}
	return success(c, http.StatusOK, "", a)
}

func (h *AddressHTTP) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "address.create", "create_address_error", err)
	}

	var req transport.AddressRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "address.create", "create_address_error", err)
	}

	a, err := h.Svc.Create(c.Request().Context(), userID, service.AddressInput{
		Name:              req.Name,
		Mobile:            req.Mobile,
		AddressLine1:      req.AddressLine1,
		AddressLine2:      req.AddressLine2,
		Landmark:          req.Landmark,
		City:              req.City,
		State:             req.State,
		Pincode:           req.Pincode,
		Type:              models.AddressType(req.Type),
		IsDefault:         req.IsDefault,
		ServiceLocationID: req.ServiceLocationID,
	})
	if err != nil {
		return fail(c, "address.create", "create_address_error", err)
	}
	return success(c, http.StatusCreated, "Address created", a)
}

func (h *AddressHTTP) Update(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "address.update", "update_address_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "address.update", "update_address_error", err)
	}

	var req transport.UpdateAddressRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "address.update", "update_address_error", err)
	}

	upd := service.AddressUpdate{
		Name:              req.Name,
		Mobile:            req.Mobile,
		AddressLine1:      req.AddressLine1,
		AddressLine2:      req.AddressLine2,
		Landmark:          req.Landmark,
		City:              req.City,
		State:             req.State,
		Pincode:           req.Pincode,
		IsDefault:         req.IsDefault,
		ServiceLocationID: req.ServiceLocationID,
	}
	if req.Type != nil {
		t := models.AddressType(*req.Type)
		upd.Type = &t
	}

	a, err := h.Svc.Update(c.Request().Context(), userID, id, upd)
	if err != nil {
		return fail(c, "address.update", "update_address_error", err)
	}
	return success(c, http.StatusOK, "Address updated", a)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "address.delete", "delete_address_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "address.delete", "delete_address_error", err)
	}
	if err := h.Svc.Delete(c.Request().Context(), userID, id); err != nil {
		return fail(c, "address.delete", "delete_address_error", err)
	}
	return success(c, http.StatusOK, "Address deleted", nil)
}

func (h *AddressHTTP) SetDefault(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "address.set_default", "set_default_address_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "address.set_default", "set_default_address_error", err)
	}
	a, err := h.Svc.SetDefault(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, "address.set_default", "set_default_address_error", err)
	}
	return success(c, http.StatusOK, "Default address updated", a)
}
