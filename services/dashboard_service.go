package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fleetledger/ledger"
	"fleetledger/models"
	"fleetledger/repository"
)

// DashboardService aggregates the home screen. Independent reads run
// concurrently.
type DashboardService struct {
	stores     *repository.Stores
	trips      *TripService
	docs       *DocumentService
	expiryDays int
}

func NewDashboardService(stores *repository.Stores, trips *TripService, docs *DocumentService, expiryDays int) *DashboardService {
	if expiryDays <= 0 {
		expiryDays = 30
	}
	return &DashboardService{stores: stores, trips: trips, docs: docs, expiryDays: expiryDays}
}

func (s *DashboardService) Summary(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	var (
		sum      models.DashboardSummary
		trips    []*models.TripDetails
		advances []*models.PartyPayment
		supPaid  []*models.SupplierAccount
		drivers  []*models.Driver
		byKind   map[string]float64
		truckN   int64
		expiring []*models.DocumentEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trips, err = s.trips.List(gctx, userID, TripFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		advances, err = s.stores.PartyPayments.Find(gctx, userID, repository.Filter{"trip_id": nil})
		return err
	})
	g.Go(func() error {
		var err error
		supPaid, err = s.stores.SupplierAccounts.Find(gctx, userID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		drivers, err = s.stores.Drivers.Find(gctx, userID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		byKind, err = expenseTotals(gctx, s.stores, userID)
		return err
	})
	g.Go(func() error {
		var err error
		truckN, err = s.stores.Trucks.Count(gctx, userID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		expiring, err = s.docs.Expiring(gctx, userID, s.expiryDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var lts []ledger.Trip
	var revenue, hire []float64
	for _, t := range trips {
		lts = append(lts, ledgerTrip(t.Trip, t.Charges))
		revenue = append(revenue, t.Revenue)
		if t.SupplierID != "" {
			hire = append(hire, t.TruckHireCost)
		}
		if t.Status >= 0 && t.Status < len(sum.TripsByStatus) {
			sum.TripsByStatus[t.Status]++
		}
	}
	var adv, paid, got, gave []float64
	for _, p := range advances {
		adv = append(adv, p.Amount)
	}
	for _, p := range supPaid {
		paid = append(paid, p.Amount)
	}
	for _, d := range drivers {
		for _, a := range d.Accounts {
			got = append(got, a.Got)
			gave = append(gave, a.Gave)
		}
	}

	sum.TripCount = len(trips)
	sum.Revenue = ledger.Total(revenue)
	sum.PartyBalance = ledger.PartyBalance(lts, adv)
	sum.SupplierBalance = ledger.SupplierBalance(hire, paid)
	sum.DriverBalance = ledger.Net(got, gave)
	sum.ExpensesByKind = byKind
	sum.TruckCount = int(truckN)
	sum.ExpiringDocuments = len(expiring)
	return &sum, nil
}
