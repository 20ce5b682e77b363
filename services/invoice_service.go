package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	mongodb "fleetledger/db/mongo"
	"fleetledger/ledger"
	"fleetledger/models"
	"fleetledger/repository"
	"fleetledger/utils"
)

type InvoiceService struct {
	stores  *repository.Stores
	trips   *TripService
	jobs    Enqueuer
	storage ObjectStorage
	dueDays int
	logger  *slog.Logger
}

func NewInvoiceService(stores *repository.Stores, trips *TripService, opts Options, logger *slog.Logger) *InvoiceService {
	return &InvoiceService{
		stores:  stores,
		trips:   trips,
		jobs:    opts.Jobs,
		storage: opts.Storage,
		dueDays: opts.InvoiceDueDays,
		logger:  logger,
	}
}

// InvoiceRequest selects the trips of one party to bill together.
type InvoiceRequest struct {
	PartyID   string    `json:"party_id" validate:"required"`
	TripIDs   []string  `json:"trips" validate:"required,min=1,dive,required"`
	InvoiceNo string    `json:"invoiceNo"`
	Date      time.Time `json:"date"`
	DueDate   time.Time `json:"dueDate"`
}

// fill computes items and totals of inv from the trip details.
func fill(inv *models.Invoice, details []*models.TripDetails) {
	total, advance := decimal.Zero, decimal.Zero
	inv.Items = make([]models.InvoiceItem, 0, len(details))
	inv.Trips = make([]string, 0, len(details))
	for _, d := range details {
		billable := ledger.Billable(ledgerTrip(d.Trip, d.Charges))
		inv.Trips = append(inv.Trips, d.TripID)
		inv.Items = append(inv.Items, models.InvoiceItem{
			TripID:      d.TripID,
			Truck:       d.Truck,
			Origin:      d.Route.Origin,
			Destination: d.Route.Destination,
			LR:          d.LR,
			StartDate:   d.StartDate,
			Amount:      d.Amount,
			Charges:     decimal.NewFromFloat(d.ChargeToBill).Sub(decimal.NewFromFloat(d.ChargeNotToBill)).InexactFloat64(),
			Advance:     d.AccountBalance,
			Balance:     d.Balance,
		})
		total = total.Add(decimal.NewFromFloat(billable))
		advance = advance.Add(decimal.NewFromFloat(d.AccountBalance))
	}
	inv.Total = total.InexactFloat64()
	inv.Advance = advance.InexactFloat64()
	inv.Balance = total.Sub(advance).InexactFloat64()
	inv.InvoiceStatus = ledger.InvoiceStatus(inv.Total, inv.Advance)
}

// Create bills trips of one party. None of the trips may already be
// invoiced. The trips are marked with the invoice and a PDF is queued.
func (s *InvoiceService) Create(ctx context.Context, userID string, req InvoiceRequest) (*models.Invoice, error) {
	party, err := s.stores.Parties.FindOne(ctx, userID, req.PartyID)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, invalid("party %s does not exist", req.PartyID)
	}

	ids := dedupe(req.TripIDs)
	if len(ids) == 0 {
		return nil, invalid("an invoice needs at least one trip")
	}
	trips, err := s.stores.Trips.Find(ctx, userID, repository.Filter{"tripId": ids})
	if err != nil {
		return nil, err
	}
	if len(trips) != len(ids) {
		return nil, invalid("some trips do not exist")
	}
	for _, t := range trips {
		if t.PartyID != req.PartyID {
			return nil, invalid("trip %s belongs to another party", t.TripID)
		}
		if t.Invoice {
			return nil, invalid("trip %s is already invoiced", t.TripID)
		}
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartDate.Before(trips[j].StartDate) })
	details, err := s.trips.Details(ctx, userID, trips)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	inv := &models.Invoice{
		UserID:    userID,
		InvoiceNo: req.InvoiceNo,
		PartyID:   party.PartyID,
		PartyName: party.Name,
		Date:      req.Date,
		DueDate:   req.DueDate,
		CreatedAt: now,
	}
	if inv.Date.IsZero() {
		inv.Date = now
	}
	if inv.DueDate.IsZero() && s.dueDays > 0 {
		inv.DueDate = inv.Date.AddDate(0, 0, s.dueDays)
	}
	if inv.InvoiceNo == "" {
		n, err := s.stores.Invoices.Count(ctx, userID, nil)
		if err != nil {
			return nil, err
		}
		inv.InvoiceNo = fmt.Sprintf("INV-%04d", n+1)
	}
	fill(inv, details)

	err = mongodb.Try(func() error {
		inv.InvoiceID = utils.NewID("inv")
		return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			for _, t := range trips {
				expected := t.Version
				t.Invoice = true
				t.InvoiceID = inv.InvoiceID
				if err := s.trips.save(ctx, t, expected); err != nil {
					return err
				}
			}
			return s.stores.Invoices.Insert(ctx, inv)
		})
	})
	if err != nil {
		if _, rerr := s.resetTrips(ctx, userID, inv.InvoiceID); rerr != nil {
			s.logger.Error("failed to release trips of aborted invoice", "invoice_id", inv.InvoiceID, "error", rerr)
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	if s.jobs != nil {
		if err := s.jobs.EnqueueInvoicePDF(ctx, userID, inv.InvoiceID); err != nil {
			s.logger.Warn("failed to enqueue invoice pdf", "invoice_id", inv.InvoiceID, "error", err)
		}
	}
	return inv, nil
}

// resetTrips clears the invoice back-reference on every trip pointing at
// invoiceID and returns how many were released. Version conflicts are retried.
func (s *InvoiceService) resetTrips(ctx context.Context, userID, invoiceID string) (int, error) {
	released := 0
	err := mongodb.WithRetries(func() error {
		trips, err := s.stores.Trips.Find(ctx, userID, repository.Filter{"invoice_id": invoiceID})
		if err != nil {
			return err
		}
		for _, t := range trips {
			expected := t.Version
			t.Invoice = false
			t.InvoiceID = ""
			if err := s.trips.save(ctx, t, expected); err != nil {
				return err
			}
			released++
		}
		return nil
	}, mongodb.DefaultMaxRetries, func(err error) bool { return errors.Is(err, ErrConflict) })
	return released, err
}

// Delete removes an invoice. Trips are released first and the invoice
// removed last; both steps are idempotent so a retry after a partial failure
// converges.
func (s *InvoiceService) Delete(ctx context.Context, userID, invoiceID string) error {
	inv, err := s.stores.Invoices.FindOne(ctx, userID, invoiceID)
	if err != nil {
		return err
	}

	released := 0
	err = s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.resetTrips(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		released = n
		err = s.stores.Invoices.Delete(ctx, userID, invoiceID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if inv == nil {
		if released == 0 {
			return notFound("invoice", invoiceID)
		}
		return nil
	}

	if inv.PDFURL != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, inv.PDFURL); err != nil {
			s.logger.Warn("failed to delete invoice pdf", "invoice_id", invoiceID, "error", err)
		}
	}
	return nil
}

func (s *InvoiceService) Get(ctx context.Context, userID, invoiceID string) (*models.Invoice, error) {
	inv, err := s.stores.Invoices.FindOne(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, notFound("invoice", invoiceID)
	}
	return inv, nil
}

func (s *InvoiceService) List(ctx context.Context, userID, partyID string) ([]*models.Invoice, error) {
	var q repository.Filter
	if partyID != "" {
		q = repository.Filter{"partyId": partyID}
	}
	invoices, err := s.stores.Invoices.Find(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(invoices, func(i, j int) bool { return invoices[i].Date.After(invoices[j].Date) })
	return invoices, nil
}

// Refresh recomputes an invoice from the current state of its trips, e.g.
// after more payments were received.
func (s *InvoiceService) Refresh(ctx context.Context, userID, invoiceID string) (*models.Invoice, error) {
	inv, err := s.Get(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	trips, err := s.stores.Trips.Find(ctx, userID, repository.Filter{"invoice_id": invoiceID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartDate.Before(trips[j].StartDate) })
	details, err := s.trips.Details(ctx, userID, trips)
	if err != nil {
		return nil, err
	}
	fill(inv, details)
	if err := s.stores.Invoices.Replace(ctx, userID, invoiceID, inv, nil); err != nil {
		return nil, fmt.Errorf("refresh invoice: %w", err)
	}
	if s.jobs != nil {
		if err := s.jobs.EnqueueInvoicePDF(ctx, userID, invoiceID); err != nil {
			s.logger.Warn("failed to enqueue invoice pdf", "invoice_id", invoiceID, "error", err)
		}
	}
	return inv, nil
}

// SetPDF records where the rendered PDF of an invoice is stored.
func (s *InvoiceService) SetPDF(ctx context.Context, userID, invoiceID, url string) error {
	n, err := s.stores.Invoices.Update(ctx, userID, repository.Filter{"invoiceId": invoiceID}, repository.Filter{"pdfUrl": url})
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("invoice", invoiceID)
	}
	return nil
}

// PDFData gathers everything the invoice template needs.
func (s *InvoiceService) PDFData(ctx context.Context, userID, invoiceID string) (models.InvoicePDFData, error) {
	inv, err := s.Get(ctx, userID, invoiceID)
	if err != nil {
		return models.InvoicePDFData{}, err
	}
	company, err := s.stores.Users.GetUserByID(ctx, userID)
	if err != nil {
		return models.InvoicePDFData{}, err
	}
	if company == nil {
		company = &models.User{UserID: userID}
	}
	party, err := s.stores.Parties.FindOne(ctx, userID, inv.PartyID)
	if err != nil {
		return models.InvoicePDFData{}, err
	}
	if party == nil {
		party = &models.Party{PartyID: inv.PartyID, Name: inv.PartyName}
	}
	return utils.NewInvoicePDFData(company, party, inv), nil
}

func dedupe(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
