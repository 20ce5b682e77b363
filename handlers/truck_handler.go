package handlers

import (
	"net/http"

	"fleetledger/models"
	"fleetledger/services"
)

type TruckHandler struct {
	*Base
	Trucks *services.TruckService
}

func (h *TruckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t models.Truck
	if !h.decode(w, r, &t) {
		return
	}
	created, err := h.Trucks.Create(r.Context(), account(r), &t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Truck created", created)
}

func (h *TruckHandler) List(w http.ResponseWriter, r *http.Request) {
	trucks, err := h.Trucks.List(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", trucks)
}

func (h *TruckHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Trucks.Get(r.Context(), account(r), param(r, "truckID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", t)
}

func (h *TruckHandler) Update(w http.ResponseWriter, r *http.Request) {
	var t models.Truck
	if !h.decode(w, r, &t) {
		return
	}
	updated, err := h.Trucks.Update(r.Context(), account(r), param(r, "truckID"), &t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Truck updated", updated)
}

func (h *TruckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Trucks.Delete(r.Context(), account(r), param(r, "truckID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Truck deleted", nil)
}
