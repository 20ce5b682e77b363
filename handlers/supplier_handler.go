package handlers

import (
	"net/http"

	"fleetledger/models"
	"fleetledger/services"
)

type SupplierHandler struct {
	*Base
	Suppliers *services.SupplierService
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sup models.Supplier
	if !h.decode(w, r, &sup) {
		return
	}
	created, err := h.Suppliers.Create(r.Context(), account(r), &sup)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Supplier created", created)
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.Suppliers.List(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", suppliers)
}

func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	sup, err := h.Suppliers.Get(r.Context(), account(r), param(r, "supplierID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", sup)
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	var sup models.Supplier
	if !h.decode(w, r, &sup) {
		return
	}
	updated, err := h.Suppliers.Update(r.Context(), account(r), param(r, "supplierID"), &sup)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Supplier updated", updated)
}

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Suppliers.Delete(r.Context(), account(r), param(r, "supplierID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Supplier deleted", nil)
}

func (h *SupplierHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var p models.SupplierAccount
	if !h.decode(w, r, &p) {
		return
	}
	payment, err := h.Suppliers.AddPayment(r.Context(), account(r), param(r, "supplierID"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Payment added", payment)
}

func (h *SupplierHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	err := h.Suppliers.DeletePayment(r.Context(), account(r), param(r, "supplierID"), param(r, "paymentID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Payment deleted", nil)
}
