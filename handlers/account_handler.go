package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fleetledger/reports"
	"fleetledger/services"
)

type AccountHandler struct {
	*Base
	Accounts  *services.AccountService
	Dashboard *services.DashboardService
	Trips     *services.TripService
	Cookies   CookieConfig
}

func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dashboard.Summary(r.Context(), account(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "", summary)
}

// Delete removes the caller's account and everything it owns.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.Delete(r.Context(), account(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Cookies.clear(w)
	h.ok(w, "Account deleted", nil)
}

// ExportTrips downloads the trip ledger as an Excel workbook. It accepts the
// same filters as the trip list.
func (h *AccountHandler) ExportTrips(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now()
	var buf bytes.Buffer
	if err := reports.WriteTrips(&buf, "Trip Ledger", trips, now); err != nil {
		h.fail(w, r, err)
		return
	}
	filename := fmt.Sprintf("trips_%s.xlsx", now.Format("20060102_150405"))
	w.Header().Set("Content-Type", reports.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
