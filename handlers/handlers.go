// Package handlers exposes the services as a JSON API. Every response uses
// the ApiResponse envelope.
package handlers

import (
	"log/slog"

	"fleetledger/metrics"
	"fleetledger/services"
)

// Set is every handler the router mounts.
type Set struct {
	Trips     *TripHandler
	Parties   *PartyHandler
	Suppliers *SupplierHandler
	Drivers   *DriverHandler
	Trucks    *TruckHandler
	Expenses  *ExpenseHandler
	Invoices  *InvoiceHandler
	Shops     *ShopHandler
	Documents *DocumentHandler
	Accounts  *AccountHandler
	Users     *UserHandler
}

// Config holds the handler settings that do not live in the services.
type Config struct {
	Cookies        CookieConfig
	MaxUploadBytes int64
	ExpiryDays     int
	Jobs           services.Enqueuer
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

func NewSet(svc *services.Services, users *services.UserService, cfg Config) *Set {
	base := NewBase(cfg.Metrics, cfg.Logger)
	return &Set{
		Trips:     &TripHandler{Base: base, Trips: svc.Trips},
		Parties:   &PartyHandler{Base: base, Parties: svc.Parties},
		Suppliers: &SupplierHandler{Base: base, Suppliers: svc.Suppliers},
		Drivers:   &DriverHandler{Base: base, Drivers: svc.Drivers},
		Trucks:    &TruckHandler{Base: base, Trucks: svc.Trucks},
		Expenses:  &ExpenseHandler{Base: base, Expenses: svc.Expenses},
		Invoices:  &InvoiceHandler{Base: base, Invoices: svc.Invoices, Jobs: cfg.Jobs},
		Shops:     &ShopHandler{Base: base, Shops: svc.Shops},
		Documents: &DocumentHandler{
			Base:           base,
			Documents:      svc.Documents,
			MaxUploadBytes: cfg.MaxUploadBytes,
			ExpiryDays:     cfg.ExpiryDays,
		},
		Accounts: &AccountHandler{
			Base:      base,
			Accounts:  svc.Accounts,
			Dashboard: svc.Dashboard,
			Trips:     svc.Trips,
			Cookies:   cfg.Cookies,
		},
		Users: &UserHandler{Base: base, Users: users, Cookies: cfg.Cookies},
	}
}
