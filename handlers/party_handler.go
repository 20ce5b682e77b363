package handlers

import (
	"net/http"

	"fleetledger/models"
	"fleetledger/services"
)

type PartyHandler struct {
	*Base
	Parties *services.PartyService
}

func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var party models.Party
	if !h.decode(w, r, &party) {
		return
	}
	created, err := h.Parties.Create(r.Context(), account(r), &party)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Party created", created)
}

func (h *PartyHandler) List(w http.ResponseWriter, r *http.Request) {
	parties, err := h.Parties.List(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", parties)
}

// Get returns the party with its balance, trips and payments.
func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	party, err := h.Parties.Get(r.Context(), account(r), param(r, "partyID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", party)
}

func (h *PartyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var party models.Party
	if !h.decode(w, r, &party) {
		return
	}
	updated, err := h.Parties.Update(r.Context(), account(r), param(r, "partyID"), &party)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Party updated", updated)
}

func (h *PartyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Parties.Delete(r.Context(), account(r), param(r, "partyID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Party deleted", nil)
}

// AddPayment records money received. With a trip_id it is booked against
// that trip, otherwise it is an advance on the party.
func (h *PartyHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var p models.PartyPayment
	p.PartyID = param(r, "partyID")
	if !h.decode(w, r, &p) {
		return
	}
	payment, err := h.Parties.AddPayment(r.Context(), account(r), param(r, "partyID"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Payment added", payment)
}

func (h *PartyHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.Parties.DeletePayment(r.Context(), account(r), param(r, "partyID"), param(r, "paymentID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Payment deleted", nil)
}
