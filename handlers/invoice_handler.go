package handlers

import (
	"net/http"

	"fleetledger/services"
)

type InvoiceHandler struct {
	*Base
	Invoices *services.InvoiceService
	Jobs     services.Enqueuer
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.InvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	inv, err := h.Invoices.Create(r.Context(), account(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Invoice created", inv)
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Invoices.List(r.Context(), account(r), r.URL.Query().Get("party"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", invoices)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.Get(r.Context(), account(r), param(r, "invoiceID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", inv)
}

// Refresh recomputes the advance and status from the trips' current payments.
func (h *InvoiceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.Refresh(r.Context(), account(r), param(r, "invoiceID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Invoice refreshed", inv)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Invoices.Delete(r.Context(), account(r), param(r, "invoiceID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Invoice deleted", nil)
}

// RenderPDF queues a fresh PDF. The URL shows up on the invoice once the
// worker has stored it.
func (h *InvoiceHandler) RenderPDF(w http.ResponseWriter, r *http.Request) {
	if h.Jobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, ApiResponse{Success: false, Message: "pdf rendering is not configured"})
		return
	}
	userID, invoiceID := account(r), param(r, "invoiceID")
	if _, err := h.Invoices.Get(r.Context(), userID, invoiceID); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Jobs.EnqueueInvoicePDF(r.Context(), userID, invoiceID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ApiResponse{Success: true, Message: "PDF generation queued"})
}
