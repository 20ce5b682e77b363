package handlers

import (
	"net/http"

	"fleetledger/models"
	"fleetledger/services"
)

type DriverHandler struct {
	*Base
	Drivers *services.DriverService
}

func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.Driver
	if !h.decode(w, r, &d) {
		return
	}
	created, err := h.Drivers.Create(r.Context(), account(r), &d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Driver created", created)
}

func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.Drivers.List(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", drivers)
}

func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Drivers.Get(r.Context(), account(r), param(r, "driverID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", d)
}

func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	var d models.Driver
	if !h.decode(w, r, &d) {
		return
	}
	updated, err := h.Drivers.Update(r.Context(), account(r), param(r, "driverID"), &d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Driver updated", updated)
}

func (h *DriverHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Drivers.Delete(r.Context(), account(r), param(r, "driverID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Driver deleted", nil)
}

// AddAccount appends a got/gave line to the driver's khata.
func (h *DriverHandler) AddAccount(w http.ResponseWriter, r *http.Request) {
	var acc models.DriverAccount
	if !h.decode(w, r, &acc) {
		return
	}
	added, err := h.Drivers.AddAccount(r.Context(), account(r), param(r, "driverID"), acc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Entry added", added)
}

func (h *DriverHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.Drivers.DeleteAccount(r.Context(), account(r), param(r, "driverID"), param(r, "accountID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Entry deleted", nil)
}
