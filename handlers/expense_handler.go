package handlers

import (
	"net/http"

	"fleetledger/ledger"
	"fleetledger/models"
	"fleetledger/services"
)

type ExpenseHandler struct {
	*Base
	Expenses *services.ExpenseService
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e models.Expense
	if !h.decode(w, r, &e) {
		return
	}
	created, err := h.Expenses.Create(r.Context(), account(r), &e)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Expense created", created)
}

// List supports ?kind=trip|truck|office&trip=&truck=&from=&to= filters.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.ExpenseFilter{
		Kind:   ledger.ExpenseKind(q.Get("kind")),
		TripID: q.Get("trip"),
		Truck:  q.Get("truck"),
	}
	if f.Kind != "" && !f.Kind.Valid() {
		h.badRequest(w, "kind must be trip, truck or office")
		return
	}
	var err error
	if f.From, err = queryDate(r, "from"); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	expenses, err := h.Expenses.List(r.Context(), account(r), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", expenses)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.Expenses.Get(r.Context(), account(r), param(r, "expenseID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", e)
}

func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var e models.Expense
	if !h.decode(w, r, &e) {
		return
	}
	updated, err := h.Expenses.Update(r.Context(), account(r), param(r, "expenseID"), &e)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Expense updated", updated)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.Delete(r.Context(), account(r), param(r, "expenseID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Expense deleted", nil)
}

// Totals returns the expense sum per kind.
func (h *ExpenseHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Expenses.Totals(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", totals)
}
