package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	mongodb "fleetledger/db/mongo"
	"fleetledger/ledger"
	"fleetledger/models"
	"fleetledger/repository"
	"fleetledger/utils"
)

// TripService owns trips together with their accounts and charges.
type TripService struct {
	stores *repository.Stores
	logger *slog.Logger
}

func NewTripService(stores *repository.Stores, logger *slog.Logger) *TripService {
	return &TripService{stores: stores, logger: logger}
}

// TripFilter narrows List. Zero values are ignored.
type TripFilter struct {
	PartyID    string
	DriverID   string
	SupplierID string
	Truck      string
	Status     *int
	Invoiced   *bool
}

func (f TripFilter) query() repository.Filter {
	q := repository.Filter{}
	if f.PartyID != "" {
		q["partyId"] = f.PartyID
	}
	if f.DriverID != "" {
		q["driverId"] = f.DriverID
	}
	if f.SupplierID != "" {
		q["supplierId"] = f.SupplierID
	}
	if f.Truck != "" {
		q["truck"] = f.Truck
	}
	if f.Status != nil {
		q["status"] = *f.Status
	}
	if f.Invoiced != nil {
		q["invoice"] = *f.Invoiced
	}
	return q
}

// TripUpdate is a partial update of a trip's own fields. Nil fields are kept.
type TripUpdate struct {
	PartyID        *string       `json:"party"`
	Truck          *string       `json:"truck"`
	DriverID       *string       `json:"driver"`
	SupplierID     *string       `json:"supplierId"`
	Route          *models.Route `json:"route"`
	BillingType    *string       `json:"billingType"`
	PerUnit        *float64      `json:"perUnit" validate:"omitempty,gte=0"`
	TotalUnits     *float64      `json:"totalUnits" validate:"omitempty,gte=0"`
	Amount         *float64      `json:"amount" validate:"omitempty,gte=0"`
	TruckHireCost  *float64      `json:"truckHireCost" validate:"omitempty,gte=0"`
	LR             *string       `json:"LR"`
	Material       []string      `json:"material"`
	StartDate      *time.Time    `json:"startDate"`
	StartKmReading *float64      `json:"startKmReading"`
	Notes          *string       `json:"notes"`
}

func ledgerTrip(trip *models.Trip, charges []*models.TripCharge) ledger.Trip {
	lt := ledger.Trip{Amount: trip.Amount}
	for _, c := range charges {
		lt.Charges = append(lt.Charges, ledger.Charge{Amount: c.Amount, PartyBill: c.PartyBill})
	}
	for _, a := range trip.Accounts {
		lt.Accounts = append(lt.Accounts, a.Amount)
	}
	return lt
}

// Create validates references, computes per-unit freight and stores the trip
// with any initial accounts.
func (s *TripService) Create(ctx context.Context, userID string, trip *models.Trip) (*models.Trip, error) {
	if err := s.resolveRefs(ctx, userID, trip); err != nil {
		return nil, err
	}
	now := timeNow()
	if trip.Amount == 0 && trip.PerUnit > 0 && trip.TotalUnits > 0 {
		trip.Amount = ledger.Freight(trip.PerUnit, trip.TotalUnits)
	}
	if trip.StartDate.IsZero() {
		trip.StartDate = now
	}
	if trip.Status < models.TripCreated || trip.Status > models.TripInvoiced {
		return nil, invalid("trip status must be between 0 and 4")
	}
	trip.UserID = userID
	trip.Dates = [5]*time.Time{}
	start := trip.StartDate
	trip.Dates[trip.Status] = &start
	trip.Invoice = false
	trip.InvoiceID = ""
	trip.Version = 0
	trip.CreatedAt = now
	for i := range trip.Accounts {
		if trip.Accounts[i].Amount <= 0 {
			return nil, invalid("payment amount must be positive")
		}
		trip.Accounts[i].AccountID = utils.NewID("acc")
		if trip.Accounts[i].Date.IsZero() {
			trip.Accounts[i].Date = now
		}
		if trip.Accounts[i].ReceivedByDriver && trip.DriverID == "" {
			return nil, invalid("trip has no driver to receive the payment")
		}
	}
	if _, err := ledger.Check(ledgerTrip(trip, nil)); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	err := mongodb.Try(func() error {
		trip.TripID = utils.NewID("trip")
		return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.stores.Trips.Insert(ctx, trip); err != nil {
				return err
			}
			for i := range trip.Accounts {
				if err := s.mirrorAccount(ctx, trip, &trip.Accounts[i]); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return trip, nil
}

// resolveRefs checks that the party, truck, driver and supplier of a trip
// exist. Market trucks default the supplier to the truck's supplier.
func (s *TripService) resolveRefs(ctx context.Context, userID string, trip *models.Trip) error {
	party, err := s.stores.Parties.FindOne(ctx, userID, trip.PartyID)
	if err != nil {
		return err
	}
	if party == nil {
		return invalid("party %s does not exist", trip.PartyID)
	}

	trucks, err := s.stores.Trucks.Find(ctx, userID, repository.Filter{"truckNo": trip.Truck})
	if err != nil {
		return err
	}
	if len(trucks) == 0 {
		return invalid("truck %s does not exist", trip.Truck)
	}
	truck := trucks[0]
	if truck.OwnershipType == models.OwnershipMarket && trip.SupplierID == "" {
		trip.SupplierID = truck.SupplierID
	}
	if trip.DriverID == "" {
		trip.DriverID = truck.DriverID
	}

	if trip.DriverID != "" {
		driver, err := s.stores.Drivers.FindOne(ctx, userID, trip.DriverID)
		if err != nil {
			return err
		}
		if driver == nil {
			return invalid("driver %s does not exist", trip.DriverID)
		}
	}
	if trip.SupplierID != "" {
		supplier, err := s.stores.Suppliers.FindOne(ctx, userID, trip.SupplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			return invalid("supplier %s does not exist", trip.SupplierID)
		}
	}
	return nil
}

func (s *TripService) load(ctx context.Context, userID, tripID string) (*models.Trip, []*models.TripCharge, error) {
	trip, err := s.stores.Trips.FindOne(ctx, userID, tripID)
	if err != nil {
		return nil, nil, err
	}
	if trip == nil {
		return nil, nil, notFound("trip", tripID)
	}
	charges, err := s.stores.TripCharges.Find(ctx, userID, repository.Filter{"trip_id": tripID})
	if err != nil {
		return nil, nil, err
	}
	return trip, charges, nil
}

// save replaces the trip if it still carries version expected.
func (s *TripService) save(ctx context.Context, trip *models.Trip, expected int64) error {
	trip.Version = expected + 1
	err := s.stores.Trips.Replace(ctx, trip.UserID, trip.TripID, trip, repository.Filter{"version": expected})
	if errors.Is(err, repository.ErrNotFound) {
		trip.Version = expected
		return ErrConflict
	}
	return err
}

// tripChange is a candidate state of a trip. persist runs after the trip
// document is saved, in the same unit of work.
type tripChange struct {
	trip    *models.Trip
	charges []*models.TripCharge
	persist func(ctx context.Context) error
}

// change loads a trip, lets fn build the candidate state, and saves it only
// if the resulting balance is not negative. On rejection nothing is written.
func (s *TripService) change(ctx context.Context, userID, tripID, op string, fn func(c *tripChange) error) (*models.Trip, error) {
	trip, charges, err := s.load(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	expected := trip.Version
	c := &tripChange{trip: trip, charges: charges}
	if err := fn(c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := ledger.Check(ledgerTrip(c.trip, c.charges)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.save(ctx, c.trip, expected); err != nil {
			return err
		}
		if c.persist != nil {
			return c.persist(ctx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.trip, nil
}

func (s *TripService) Get(ctx context.Context, userID, tripID string) (*models.TripDetails, error) {
	trip, err := s.stores.Trips.FindOne(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, notFound("trip", tripID)
	}
	details, err := s.Details(ctx, userID, []*models.Trip{trip})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// List returns the matching trips with their balances, newest first.
func (s *TripService) List(ctx context.Context, userID string, f TripFilter) ([]*models.TripDetails, error) {
	trips, err := s.stores.Trips.Find(ctx, userID, f.query())
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartDate.After(trips[j].StartDate) })
	return s.Details(ctx, userID, trips)
}

// Details joins charges, trip expenses and names onto trips and computes
// their aggregates.
func (s *TripService) Details(ctx context.Context, userID string, trips []*models.Trip) ([]*models.TripDetails, error) {
	out := make([]*models.TripDetails, 0, len(trips))
	if len(trips) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(trips))
	partyIDs := []string{}
	driverIDs := []string{}
	for _, t := range trips {
		ids = append(ids, t.TripID)
		partyIDs = append(partyIDs, t.PartyID)
		if t.DriverID != "" {
			driverIDs = append(driverIDs, t.DriverID)
		}
	}

	charges, err := s.stores.TripCharges.Find(ctx, userID, repository.Filter{"trip_id": ids})
	if err != nil {
		return nil, err
	}
	byTrip := map[string][]*models.TripCharge{}
	for _, c := range charges {
		byTrip[c.TripID] = append(byTrip[c.TripID], c)
	}

	expenses, err := s.stores.Expenses.Find(ctx, userID, repository.Filter{"trip_id": ids})
	if err != nil {
		return nil, err
	}
	expByTrip := map[string][]float64{}
	for _, e := range expenses {
		if e.Category() == ledger.TripExpense {
			expByTrip[e.TripID] = append(expByTrip[e.TripID], e.Amount)
		}
	}

	partyNames := map[string]string{}
	parties, err := s.stores.Parties.Find(ctx, userID, repository.Filter{"partyId": partyIDs})
	if err != nil {
		return nil, err
	}
	for _, p := range parties {
		partyNames[p.PartyID] = p.Name
	}
	driverNames := map[string]string{}
	if len(driverIDs) > 0 {
		drivers, err := s.stores.Drivers.Find(ctx, userID, repository.Filter{"driverId": driverIDs})
		if err != nil {
			return nil, err
		}
		for _, d := range drivers {
			driverNames[d.DriverID] = d.Name
		}
	}

	for _, t := range trips {
		tc := byTrip[t.TripID]
		if tc == nil {
			tc = []*models.TripCharge{}
		}
		lt := ledgerTrip(t, tc)
		agg := ledger.Compute(lt)
		out = append(out, &models.TripDetails{
			Trip:            t,
			Charges:         tc,
			Balance:         agg.Balance,
			Revenue:         agg.Revenue,
			ChargeToBill:    agg.ChargeToBill,
			ChargeNotToBill: agg.ChargeNotToBill,
			AccountBalance:  agg.AccountBalance,
			Expenses:        ledger.Total(expByTrip[t.TripID]),
			Profit:          ledger.Profit(lt, expByTrip[t.TripID], t.TruckHireCost),
			PartyName:       partyNames[t.PartyID],
			DriverName:      driverNames[t.DriverID],
		})
	}
	return out, nil
}

// Update applies a partial update. Amount changes are balance checked;
// moving a trip to another party moves its payments and charges with it.
func (s *TripService) Update(ctx context.Context, userID, tripID string, upd TripUpdate) (*models.Trip, error) {
	return s.change(ctx, userID, tripID, "update trip", func(c *tripChange) error {
		t := c.trip
		oldParty, oldDriver := t.PartyID, t.DriverID

		if upd.PartyID != nil && *upd.PartyID != t.PartyID {
			if t.Invoice {
				return invalid("trip is invoiced; delete the invoice before changing the party")
			}
			t.PartyID = *upd.PartyID
		}
		if upd.Truck != nil {
			t.Truck = *upd.Truck
		}
		if upd.DriverID != nil {
			t.DriverID = *upd.DriverID
		}
		if upd.SupplierID != nil {
			t.SupplierID = *upd.SupplierID
		}
		if upd.Route != nil {
			t.Route = *upd.Route
		}
		if upd.BillingType != nil {
			t.BillingType = *upd.BillingType
		}
		if upd.PerUnit != nil {
			t.PerUnit = *upd.PerUnit
		}
		if upd.TotalUnits != nil {
			t.TotalUnits = *upd.TotalUnits
		}
		if upd.Amount != nil {
			t.Amount = *upd.Amount
		} else if (upd.PerUnit != nil || upd.TotalUnits != nil) && t.PerUnit > 0 && t.TotalUnits > 0 {
			t.Amount = ledger.Freight(t.PerUnit, t.TotalUnits)
		}
		if upd.TruckHireCost != nil {
			t.TruckHireCost = *upd.TruckHireCost
		}
		if upd.LR != nil {
			t.LR = *upd.LR
		}
		if upd.Material != nil {
			t.Material = upd.Material
		}
		if upd.StartDate != nil {
			t.StartDate = *upd.StartDate
		}
		if upd.StartKmReading != nil {
			t.StartKmReading = *upd.StartKmReading
		}
		if upd.Notes != nil {
			t.Notes = *upd.Notes
		}
		if err := s.resolveRefs(ctx, userID, t); err != nil {
			return err
		}

		c.persist = func(ctx context.Context) error {
			if t.PartyID != oldParty {
				set := repository.Filter{"partyId": t.PartyID}
				if _, err := s.stores.PartyPayments.Update(ctx, userID, repository.Filter{"trip_id": t.TripID}, set); err != nil {
					return err
				}
				if _, err := s.stores.TripCharges.Update(ctx, userID, repository.Filter{"trip_id": t.TripID}, set); err != nil {
					return err
				}
			}
			if t.DriverID != oldDriver {
				for i := range t.Accounts {
					acc := &t.Accounts[i]
					if !acc.ReceivedByDriver {
						continue
					}
					if err := s.removeDriverEntry(ctx, userID, acc.AccountID); err != nil {
						return err
					}
					if err := s.addDriverEntry(ctx, t, acc); err != nil {
						return err
					}
				}
			}
			return nil
		}
		return nil
	})
}

// UpdateStatus moves a trip to any status ordinal and stamps its date.
func (s *TripService) UpdateStatus(ctx context.Context, userID, tripID string, status int, at time.Time) (*models.Trip, error) {
	if status < models.TripCreated || status > models.TripInvoiced {
		return nil, invalid("trip status must be between 0 and 4")
	}
	if at.IsZero() {
		at = timeNow()
	}
	return s.change(ctx, userID, tripID, "update trip status", func(c *tripChange) error {
		c.trip.Status = status
		c.trip.Dates[status] = &at
		return nil
	})
}

// Delete removes a trip and everything hanging off it. Dependents go first
// and the trip itself last so that a retry after a partial failure finishes
// the job.
func (s *TripService) Delete(ctx context.Context, userID, tripID string) error {
	trip, err := s.stores.Trips.FindOne(ctx, userID, tripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return notFound("trip", tripID)
	}
	if trip.Invoice {
		return invalid("trip is invoiced; delete the invoice first")
	}

	return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		byTrip := repository.Filter{"trip_id": tripID}
		if _, err := s.stores.TripCharges.DeleteMany(ctx, userID, byTrip); err != nil {
			return err
		}
		if _, err := s.stores.PartyPayments.DeleteMany(ctx, userID, byTrip); err != nil {
			return err
		}
		if _, err := s.stores.SupplierAccounts.DeleteMany(ctx, userID, byTrip); err != nil {
			return err
		}
		for _, acc := range trip.Accounts {
			if acc.ReceivedByDriver {
				if err := s.removeDriverEntry(ctx, userID, acc.AccountID); err != nil {
					return err
				}
			}
		}
		expenses, err := s.stores.Expenses.Find(ctx, userID, byTrip)
		if err != nil {
			return err
		}
		if len(expenses) > 0 {
			ids := make([]string, 0, len(expenses))
			for _, e := range expenses {
				ids = append(ids, e.ExpenseID)
			}
			if _, err := s.stores.ShopKhata.DeleteMany(ctx, userID, repository.Filter{"expenseId": ids}); err != nil {
				return err
			}
			if _, err := s.stores.Expenses.DeleteMany(ctx, userID, byTrip); err != nil {
				return err
			}
		}
		err = s.stores.Trips.Delete(ctx, userID, tripID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})
}

// AddAccount records a payment against a trip. It is rejected when the
// payment would push the trip balance below zero.
func (s *TripService) AddAccount(ctx context.Context, userID, tripID string, acc models.TripAccount) (*models.Trip, *models.TripAccount, error) {
	acc.AccountID = utils.NewID("acc")
	if acc.Date.IsZero() {
		acc.Date = timeNow()
	}
	trip, err := s.change(ctx, userID, tripID, "add trip account", func(c *tripChange) error {
		if acc.ReceivedByDriver {
			if err := s.requireDriver(ctx, c.trip); err != nil {
				return err
			}
		}
		c.trip.Accounts = append(c.trip.Accounts, acc)
		c.persist = func(ctx context.Context) error {
			return s.mirrorAccount(ctx, c.trip, &acc)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return trip, &acc, nil
}

func (s *TripService) UpdateAccount(ctx context.Context, userID, tripID, accountID string, upd models.TripAccount) (*models.Trip, error) {
	return s.change(ctx, userID, tripID, "update trip account", func(c *tripChange) error {
		i := accountIndex(c.trip, accountID)
		if i < 0 {
			return notFound("trip account", accountID)
		}
		if upd.ReceivedByDriver {
			if err := s.requireDriver(ctx, c.trip); err != nil {
				return err
			}
		}
		upd.AccountID = accountID
		if upd.Date.IsZero() {
			upd.Date = c.trip.Accounts[i].Date
		}
		c.trip.Accounts[i] = upd
		c.persist = func(ctx context.Context) error {
			if err := s.unmirrorAccount(ctx, userID, accountID); err != nil {
				return err
			}
			return s.mirrorAccount(ctx, c.trip, &upd)
		}
		return nil
	})
}

func (s *TripService) DeleteAccount(ctx context.Context, userID, tripID, accountID string) (*models.Trip, error) {
	return s.change(ctx, userID, tripID, "delete trip account", func(c *tripChange) error {
		i := accountIndex(c.trip, accountID)
		if i < 0 {
			return notFound("trip account", accountID)
		}
		c.trip.Accounts = append(c.trip.Accounts[:i], c.trip.Accounts[i+1:]...)
		c.persist = func(ctx context.Context) error {
			return s.unmirrorAccount(ctx, userID, accountID)
		}
		return nil
	})
}

// requireDriver checks that the driver collecting a payment still exists.
func (s *TripService) requireDriver(ctx context.Context, trip *models.Trip) error {
	if trip.DriverID == "" {
		return invalid("trip has no driver to receive the payment")
	}
	driver, err := s.stores.Drivers.FindOne(ctx, trip.UserID, trip.DriverID)
	if err != nil {
		return err
	}
	if driver == nil {
		return invalid("driver %s does not exist", trip.DriverID)
	}
	return nil
}

func accountIndex(trip *models.Trip, accountID string) int {
	for i, a := range trip.Accounts {
		if a.AccountID == accountID {
			return i
		}
	}
	return -1
}

// mirrorAccount writes the party payment for a trip account and, when the
// driver collected it, the driver's khata entry.
func (s *TripService) mirrorAccount(ctx context.Context, trip *models.Trip, acc *models.TripAccount) error {
	payment := &models.PartyPayment{
		PaymentID:        utils.NewID("pay"),
		UserID:           trip.UserID,
		PartyID:          trip.PartyID,
		TripID:           trip.TripID,
		AccountID:        acc.AccountID,
		Amount:           acc.Amount,
		PaymentType:      acc.PaymentType,
		ReceivedByDriver: acc.ReceivedByDriver,
		Date:             acc.Date,
		Notes:            acc.Notes,
	}
	if acc.ReceivedByDriver {
		payment.DriverID = trip.DriverID
		if err := s.addDriverEntry(ctx, trip, acc); err != nil {
			return err
		}
	}
	return s.stores.PartyPayments.Insert(ctx, payment)
}

func (s *TripService) unmirrorAccount(ctx context.Context, userID, accountID string) error {
	if _, err := s.stores.PartyPayments.DeleteMany(ctx, userID, repository.Filter{"accountId": accountID}); err != nil {
		return err
	}
	return s.removeDriverEntry(ctx, userID, accountID)
}

func (s *TripService) addDriverEntry(ctx context.Context, trip *models.Trip, acc *models.TripAccount) error {
	if trip.DriverID == "" {
		return nil
	}
	err := s.stores.Drivers.Push(ctx, trip.UserID, trip.DriverID, "accounts", models.DriverAccount{
		AccountID:   acc.AccountID,
		TripID:      trip.TripID,
		Got:         acc.Amount,
		Reason:      fmt.Sprintf("Trip payment %s - %s", trip.Route.Origin, trip.Route.Destination),
		PaymentMode: acc.PaymentType,
		Date:        acc.Date,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("driver %s does not exist", trip.DriverID)
	}
	return err
}

func (s *TripService) removeDriverEntry(ctx context.Context, userID, accountID string) error {
	_, err := s.stores.Drivers.Pull(ctx, userID, repository.Filter{"accounts.accountId": accountID},
		"accounts", repository.Filter{"accountId": accountID})
	return err
}

// AddCharge adds a charge line. Charges absorbed by the trip lower its
// balance and are rejected when they would push it below zero.
func (s *TripService) AddCharge(ctx context.Context, userID, tripID string, charge models.TripCharge) (*models.TripCharge, error) {
	charge.ChargeID = utils.NewID("charge")
	charge.UserID = userID
	charge.TripID = tripID
	if charge.Date.IsZero() {
		charge.Date = timeNow()
	}
	_, err := s.change(ctx, userID, tripID, "add trip charge", func(c *tripChange) error {
		charge.PartyID = c.trip.PartyID
		c.charges = append(c.charges, &charge)
		c.persist = func(ctx context.Context) error {
			return s.stores.TripCharges.Insert(ctx, &charge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (s *TripService) UpdateCharge(ctx context.Context, userID, tripID, chargeID string, upd models.TripCharge) (*models.TripCharge, error) {
	var updated *models.TripCharge
	_, err := s.change(ctx, userID, tripID, "update trip charge", func(c *tripChange) error {
		for _, ch := range c.charges {
			if ch.ChargeID != chargeID {
				continue
			}
			ch.ExpenseType = upd.ExpenseType
			ch.Amount = upd.Amount
			ch.PartyBill = upd.PartyBill
			ch.Notes = upd.Notes
			if !upd.Date.IsZero() {
				ch.Date = upd.Date
			}
			updated = ch
			c.persist = func(ctx context.Context) error {
				return s.stores.TripCharges.Replace(ctx, userID, chargeID, ch, nil)
			}
			return nil
		}
		return notFound("trip charge", chargeID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TripService) DeleteCharge(ctx context.Context, userID, tripID, chargeID string) error {
	_, err := s.change(ctx, userID, tripID, "delete trip charge", func(c *tripChange) error {
		for i, ch := range c.charges {
			if ch.ChargeID != chargeID {
				continue
			}
			c.charges = append(c.charges[:i], c.charges[i+1:]...)
			c.persist = func(ctx context.Context) error {
				err := s.stores.TripCharges.Delete(ctx, userID, chargeID)
				if errors.Is(err, repository.ErrNotFound) {
					return nil
				}
				return err
			}
			return nil
		}
		return notFound("trip charge", chargeID)
	})
	return err
}

// AttachDocument appends document metadata to a trip.
func (s *TripService) AttachDocument(ctx context.Context, userID, tripID string, doc models.Document) error {
	_, err := s.change(ctx, userID, tripID, "attach trip document", func(c *tripChange) error {
		c.trip.Documents = append(c.trip.Documents, doc)
		return nil
	})
	return err
}

// DetachDocument removes the document stored at url and reports whether it existed.
func (s *TripService) DetachDocument(ctx context.Context, userID, tripID, url string) (bool, error) {
	found := false
	_, err := s.change(ctx, userID, tripID, "detach trip document", func(c *tripChange) error {
		c.trip.Documents, found = withoutDocument(c.trip.Documents, url)
		return nil
	})
	return found, err
}
