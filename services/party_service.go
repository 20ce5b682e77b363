package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	mongodb "fleetledger/db/mongo"
	"fleetledger/ledger"
	"fleetledger/models"
	"fleetledger/repository"
	"fleetledger/utils"
)

type PartyService struct {
	stores *repository.Stores
	trips  *TripService
	logger *slog.Logger
}

func NewPartyService(stores *repository.Stores, trips *TripService, logger *slog.Logger) *PartyService {
	return &PartyService{stores: stores, trips: trips, logger: logger}
}

func (s *PartyService) Create(ctx context.Context, userID string, p *models.Party) (*models.Party, error) {
	p.UserID = userID
	p.CreatedAt = timeNow()
	if p.Documents == nil {
		p.Documents = []models.Document{}
	}
	err := mongodb.Try(func() error {
		p.PartyID = utils.NewID("party")
		return s.stores.Parties.Insert(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("create party: %w", err)
	}
	return p, nil
}

// Update sets the editable fields of a party. Documents are left alone.
func (s *PartyService) Update(ctx context.Context, userID, partyID string, upd *models.Party) (*models.Party, error) {
	n, err := s.stores.Parties.Update(ctx, userID, repository.Filter{"partyId": partyID}, repository.Filter{
		"name":          upd.Name,
		"contactPerson": upd.ContactPerson,
		"contactNumber": upd.ContactNumber,
		"address":       upd.Address,
		"gstNumber":     upd.GSTNumber,
		"pan":           upd.PAN,
	})
	if err != nil {
		return nil, fmt.Errorf("update party: %w", err)
	}
	p, err := s.stores.Parties.FindOne(ctx, userID, partyID)
	if err != nil {
		return nil, err
	}
	if n == 0 || p == nil {
		return nil, notFound("party", partyID)
	}
	return p, nil
}

// Delete refuses to remove a party that still has trips.
func (s *PartyService) Delete(ctx context.Context, userID, partyID string) error {
	n, err := s.stores.Trips.Count(ctx, userID, repository.Filter{"partyId": partyID})
	if err != nil {
		return err
	}
	if n > 0 {
		return invalid("party has %d trips; delete them first", n)
	}
	return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stores.PartyPayments.DeleteMany(ctx, userID, repository.Filter{"partyId": partyID}); err != nil {
			return err
		}
		err := s.stores.Parties.Delete(ctx, userID, partyID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("party", partyID)
		}
		return err
	})
}

// PartySummary is a party row with its outstanding balance.
type PartySummary struct {
	*models.Party
	Balance float64 `json:"balance"`
}

// List returns every party with its balance.
func (s *PartyService) List(ctx context.Context, userID string) ([]*PartySummary, error) {
	parties, err := s.stores.Parties.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	trips, err := s.stores.Trips.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	details, err := s.trips.Details(ctx, userID, trips)
	if err != nil {
		return nil, err
	}
	advances, err := s.stores.PartyPayments.Find(ctx, userID, repository.Filter{"trip_id": nil})
	if err != nil {
		return nil, err
	}

	tripsByParty := map[string][]ledger.Trip{}
	for _, d := range details {
		tripsByParty[d.PartyID] = append(tripsByParty[d.PartyID], ledgerTrip(d.Trip, d.Charges))
	}
	advByParty := map[string][]float64{}
	for _, p := range advances {
		advByParty[p.PartyID] = append(advByParty[p.PartyID], p.Amount)
	}

	out := make([]*PartySummary, 0, len(parties))
	for _, p := range parties {
		out = append(out, &PartySummary{
			Party:   p,
			Balance: ledger.PartyBalance(tripsByParty[p.PartyID], advByParty[p.PartyID]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a party with its trips, payments and computed balance and revenue.
func (s *PartyService) Get(ctx context.Context, userID, partyID string) (*models.PartyDetails, error) {
	p, err := s.stores.Parties.FindOne(ctx, userID, partyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("party", partyID)
	}
	trips, err := s.trips.List(ctx, userID, TripFilter{PartyID: partyID})
	if err != nil {
		return nil, err
	}
	payments, err := s.stores.PartyPayments.Find(ctx, userID, repository.Filter{"partyId": partyID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].Date.After(payments[j].Date) })

	var lts []ledger.Trip
	var revenue []float64
	for _, d := range trips {
		lts = append(lts, ledgerTrip(d.Trip, d.Charges))
		revenue = append(revenue, d.Revenue)
	}
	var advances []float64
	for _, pay := range payments {
		if pay.TripID == "" {
			advances = append(advances, pay.Amount)
		}
	}
	return &models.PartyDetails{
		Party:    p,
		Balance:  ledger.PartyBalance(lts, advances),
		Revenue:  ledger.Total(revenue),
		Trips:    trips,
		Payments: payments,
	}, nil
}

// AddPayment records money received from a party. A payment for a trip goes
// through the trip's balance check and is linked to the trip account it
// creates; otherwise it is an advance against the party.
func (s *PartyService) AddPayment(ctx context.Context, userID, partyID string, p models.PartyPayment) (*models.PartyPayment, error) {
	party, err := s.stores.Parties.FindOne(ctx, userID, partyID)
	if err != nil {
		return nil, err
	}
	if party == nil {
		return nil, notFound("party", partyID)
	}
	if p.Date.IsZero() {
		p.Date = timeNow()
	}

	if p.TripID != "" {
		trip, err := s.stores.Trips.FindOne(ctx, userID, p.TripID)
		if err != nil {
			return nil, err
		}
		if trip == nil {
			return nil, notFound("trip", p.TripID)
		}
		if trip.PartyID != partyID {
			return nil, invalid("trip %s does not belong to party %s", p.TripID, partyID)
		}
		_, acc, err := s.trips.AddAccount(ctx, userID, p.TripID, models.TripAccount{
			Amount:           p.Amount,
			PaymentType:      p.PaymentType,
			Date:             p.Date,
			Notes:            p.Notes,
			ReceivedByDriver: p.ReceivedByDriver,
		})
		if err != nil {
			return nil, err
		}
		payments, err := s.stores.PartyPayments.Find(ctx, userID, repository.Filter{"accountId": acc.AccountID})
		if err != nil {
			return nil, err
		}
		if len(payments) == 0 {
			return nil, fmt.Errorf("party payment for account %s was not recorded", acc.AccountID)
		}
		return payments[0], nil
	}

	if p.ReceivedByDriver {
		return nil, invalid("an advance cannot be received by a driver")
	}
	p.UserID = userID
	p.PartyID = partyID
	p.AccountID = ""
	err = mongodb.Try(func() error {
		p.PaymentID = utils.NewID("pay")
		return s.stores.PartyPayments.Insert(ctx, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("add party payment: %w", err)
	}
	return &p, nil
}

// DeletePayment removes a payment. A payment made against a trip removes the
// linked trip account with it.
func (s *PartyService) DeletePayment(ctx context.Context, userID, partyID, paymentID string) error {
	payment, err := s.stores.PartyPayments.FindOne(ctx, userID, paymentID)
	if err != nil {
		return err
	}
	if payment == nil || payment.PartyID != partyID {
		return notFound("party payment", paymentID)
	}
	if payment.TripID != "" && payment.AccountID != "" {
		_, err := s.trips.DeleteAccount(ctx, userID, payment.TripID, payment.AccountID)
		if errors.Is(err, ErrNotFound) {
			// trip or account already gone, drop the orphan
			return s.stores.PartyPayments.Delete(ctx, userID, paymentID)
		}
		return err
	}
	return s.stores.PartyPayments.Delete(ctx, userID, paymentID)
}
