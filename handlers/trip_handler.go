package handlers

import (
	"net/http"
	"time"

	"fleetledger/models"
	"fleetledger/services"
)

type TripHandler struct {
	*Base
	Trips *services.TripService
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	var trip models.Trip
	if !h.decode(w, r, &trip) {
		return
	}
	created, err := h.Trips.Create(r.Context(), account(r), &trip)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Trip created", created)
}

// List supports ?party=&driver=&supplier=&truck=&status=&invoiced= filters.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.TripFilter{
		PartyID:    q.Get("party"),
		DriverID:   q.Get("driver"),
		SupplierID: q.Get("supplier"),
		Truck:      q.Get("truck"),
	}
	var err error
	if f.Status, err = queryInt(r, "status"); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if f.Invoiced, err = queryBool(r, "invoiced"); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	trips, err := h.Trips.List(r.Context(), account(r), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", trips)
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Trips.Get(r.Context(), account(r), param(r, "tripID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", trip)
}

func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd services.TripUpdate
	if !h.decode(w, r, &upd) {
		return
	}
	trip, err := h.Trips.Update(r.Context(), account(r), param(r, "tripID"), upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Trip updated", trip)
}

type statusRequest struct {
	Status *int       `json:"status" validate:"required,gte=0,lte=4"`
	Date   *time.Time `json:"date"`
}

func (h *TripHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	var at time.Time
	if req.Date != nil {
		at = *req.Date
	}
	trip, err := h.Trips.UpdateStatus(r.Context(), account(r), param(r, "tripID"), *req.Status, at)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Trip status updated", trip)
}

func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Trips.Delete(r.Context(), account(r), param(r, "tripID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Trip deleted", nil)
}

type accountResponse struct {
	Trip    *models.Trip        `json:"trip"`
	Account *models.TripAccount `json:"account"`
}

func (h *TripHandler) AddAccount(w http.ResponseWriter, r *http.Request) {
	var acc models.TripAccount
	if !h.decode(w, r, &acc) {
		return
	}
	trip, added, err := h.Trips.AddAccount(r.Context(), account(r), param(r, "tripID"), acc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Payment added", accountResponse{Trip: trip, Account: added})
}

func (h *TripHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var acc models.TripAccount
	if !h.decode(w, r, &acc) {
		return
	}
	trip, err := h.Trips.UpdateAccount(r.Context(), account(r), param(r, "tripID"), param(r, "accountID"), acc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Payment updated", trip)
}

func (h *TripHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Trips.DeleteAccount(r.Context(), account(r), param(r, "tripID"), param(r, "accountID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Payment deleted", trip)
}

func (h *TripHandler) AddCharge(w http.ResponseWriter, r *http.Request) {
	var charge models.TripCharge
	if !h.decode(w, r, &charge) {
		return
	}
	added, err := h.Trips.AddCharge(r.Context(), account(r), param(r, "tripID"), charge)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Charge added", added)
}

func (h *TripHandler) UpdateCharge(w http.ResponseWriter, r *http.Request) {
	var charge models.TripCharge
	if !h.decode(w, r, &charge) {
		return
	}
	updated, err := h.Trips.UpdateCharge(r.Context(), account(r), param(r, "tripID"), param(r, "chargeID"), charge)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Charge updated", updated)
}

func (h *TripHandler) DeleteCharge(w http.ResponseWriter, r *http.Request) {
	if err := h.Trips.DeleteCharge(r.Context(), account(r), param(r, "tripID"), param(r, "chargeID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Charge deleted", nil)
}
