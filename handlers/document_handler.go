package handlers

import (
	"io"
	"net/http"
	"strconv"

	"fleetledger/models"
	"fleetledger/services"
)

type DocumentHandler struct {
	*Base
	Documents      *services.DocumentService
	MaxUploadBytes int64
	// ExpiryDays is the default window of the expiring list.
	ExpiryDays int
}

// Upload accepts a multipart form with a "file" part and optional "type"
// and "validityDate" (YYYY-MM-DD) fields.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		h.badRequest(w, "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.badRequest(w, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.badRequest(w, "could not read file: "+err.Error())
		return
	}

	up := services.Upload{
		Owner:    models.DocumentOwner(param(r, "owner")),
		OwnerID:  param(r, "ownerID"),
		Filename: header.Filename,
		Data:     data,
		Type:     r.FormValue("type"),
	}
	if v := r.FormValue("validityDate"); v != "" {
		d, err := parseDate("validityDate", v)
		if err != nil {
			h.badRequest(w, err.Error())
			return
		}
		up.ValidityDate = &d
	}

	doc, err := h.Documents.Upload(r.Context(), account(r), up)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.created(w, "Document uploaded", doc)
}

// Delete removes the document identified by ?url= from the owner.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		h.badRequest(w, "url is required")
		return
	}
	owner := models.DocumentOwner(param(r, "owner"))
	if err := h.Documents.Delete(r.Context(), account(r), owner, param(r, "ownerID"), url); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "Document deleted", nil)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Documents.List(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", docs)
}

// Expiring lists documents expiring within ?days= (default from config),
// including ones already expired.
func (h *DocumentHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	days := h.ExpiryDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.badRequest(w, "days must be a non-negative number")
			return
		}
		days = n
	}
	docs, err := h.Documents.Expiring(r.Context(), account(r), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", docs)
}
