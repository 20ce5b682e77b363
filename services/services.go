// Package services holds the write-side rules of the ledger: every mutation
// that moves money is validated against the trip, party and supplier
// balances before anything is persisted.
package services

import (
	"context"
	"log/slog"
	"time"

	"fleetledger/documents"
	"fleetledger/repository"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// ObjectStorage persists uploaded files.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// Enqueuer schedules background work.
type Enqueuer interface {
	EnqueueInvoicePDF(ctx context.Context, userID, invoiceID string) error
}

// Options configures the optional collaborators of the services.
type Options struct {
	Storage           ObjectStorage
	Extractor         documents.TextExtractor
	Jobs              Enqueuer
	ImageMaxDimension uint
	MaxUploadBytes    int64
	InvoiceDueDays    int
	ExpiryWindowDays  int
}

// Services is the set of services the handlers and jobs work with.
type Services struct {
	Trips     *TripService
	Parties   *PartyService
	Suppliers *SupplierService
	Drivers   *DriverService
	Trucks    *TruckService
	Expenses  *ExpenseService
	Invoices  *InvoiceService
	Shops     *ShopService
	Documents *DocumentService
	Accounts  *AccountService
	Dashboard *DashboardService
}

func New(stores *repository.Stores, opts Options, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	trips := NewTripService(stores, logger)
	docs := NewDocumentService(stores, trips, opts, logger)
	return &Services{
		Trips:     trips,
		Parties:   NewPartyService(stores, trips, logger),
		Suppliers: NewSupplierService(stores, logger),
		Drivers:   NewDriverService(stores, logger),
		Trucks:    NewTruckService(stores, logger),
		Expenses:  NewExpenseService(stores, logger),
		Invoices:  NewInvoiceService(stores, trips, opts, logger),
		Shops:     NewShopService(stores, logger),
		Documents: docs,
		Accounts:  NewAccountService(stores, logger),
		Dashboard: NewDashboardService(stores, trips, docs, opts.ExpiryWindowDays),
	}
}
