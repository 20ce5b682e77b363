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

type DriverService struct {
	stores *repository.Stores
	logger *slog.Logger
}

func NewDriverService(stores *repository.Stores, logger *slog.Logger) *DriverService {
	return &DriverService{stores: stores, logger: logger}
}

func driverBalance(d *models.Driver) float64 {
	var got, gave []float64
	for _, a := range d.Accounts {
		got = append(got, a.Got)
		gave = append(gave, a.Gave)
	}
	return ledger.Net(got, gave)
}

func (s *DriverService) Create(ctx context.Context, userID string, d *models.Driver) (*models.Driver, error) {
	d.UserID = userID
	d.CreatedAt = timeNow()
	if d.Status == "" {
		d.Status = "Available"
	}
	d.Accounts = []models.DriverAccount{}
	if d.Documents == nil {
		d.Documents = []models.Document{}
	}
	err := mongodb.Try(func() error {
		d.DriverID = utils.NewID("driver")
		return s.stores.Drivers.Insert(ctx, d)
	})
	if err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}
	return d, nil
}

func (s *DriverService) Update(ctx context.Context, userID, driverID string, upd *models.Driver) (*models.Driver, error) {
	set := repository.Filter{
		"name":          upd.Name,
		"contactNumber": upd.ContactNumber,
		"licenseNo":     upd.LicenseNo,
		"aadharNo":      upd.AadharNo,
	}
	if upd.Status != "" {
		set["status"] = upd.Status
	}
	n, err := s.stores.Drivers.Update(ctx, userID, repository.Filter{"driverId": driverID}, set)
	if err != nil {
		return nil, fmt.Errorf("update driver: %w", err)
	}
	d, err := s.stores.Drivers.FindOne(ctx, userID, driverID)
	if err != nil {
		return nil, err
	}
	if n == 0 || d == nil {
		return nil, notFound("driver", driverID)
	}
	return d, nil
}

// Delete refuses to remove a driver assigned to a trip that is not delivered yet.
func (s *DriverService) Delete(ctx context.Context, userID, driverID string) error {
	trips, err := s.stores.Trips.Find(ctx, userID, repository.Filter{"driverId": driverID})
	if err != nil {
		return err
	}
	for _, t := range trips {
		if t.Status < models.TripDelivered {
			return invalid("driver is on active trip %s", t.TripID)
		}
	}
	err = s.stores.Drivers.Delete(ctx, userID, driverID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("driver", driverID)
	}
	return err
}

type DriverSummary struct {
	*models.Driver
	Balance float64 `json:"balance"`
}

func (s *DriverService) List(ctx context.Context, userID string) ([]*DriverSummary, error) {
	drivers, err := s.stores.Drivers.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*DriverSummary, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, &DriverSummary{Driver: d, Balance: driverBalance(d)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DriverService) Get(ctx context.Context, userID, driverID string) (*models.DriverDetails, error) {
	d, err := s.stores.Drivers.FindOne(ctx, userID, driverID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound("driver", driverID)
	}
	trips, err := s.stores.Trips.Find(ctx, userID, repository.Filter{"driverId": driverID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartDate.After(trips[j].StartDate) })
	sort.SliceStable(d.Accounts, func(i, j int) bool { return d.Accounts[i].Date.After(d.Accounts[j].Date) })
	return &models.DriverDetails{Driver: d, Balance: driverBalance(d), Trips: trips}, nil
}

// AddAccount adds a got or gave entry to a driver's khata. Exactly one of
// the two must be set.
func (s *DriverService) AddAccount(ctx context.Context, userID, driverID string, acc models.DriverAccount) (*models.DriverAccount, error) {
	if (acc.Got > 0) == (acc.Gave > 0) {
		return nil, invalid("exactly one of got or gave must be positive")
	}
	d, err := s.stores.Drivers.FindOne(ctx, userID, driverID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound("driver", driverID)
	}
	if acc.TripID != "" {
		trip, err := s.stores.Trips.FindOne(ctx, userID, acc.TripID)
		if err != nil {
			return nil, err
		}
		if trip == nil {
			return nil, notFound("trip", acc.TripID)
		}
	}
	acc.AccountID = utils.NewID("dracc")
	if acc.Date.IsZero() {
		acc.Date = timeNow()
	}
	if err := s.stores.Drivers.Push(ctx, userID, driverID, "accounts", acc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("driver", driverID)
		}
		return nil, fmt.Errorf("add driver account: %w", err)
	}
	return &acc, nil
}

// DeleteAccount removes a khata entry. Entries mirrored from a trip payment
// must be removed through the trip.
func (s *DriverService) DeleteAccount(ctx context.Context, userID, driverID, accountID string) error {
	d, err := s.stores.Drivers.FindOne(ctx, userID, driverID)
	if err != nil {
		return err
	}
	if d == nil {
		return notFound("driver", driverID)
	}
	for _, a := range d.Accounts {
		if a.AccountID != accountID {
			continue
		}
		n, err := s.stores.PartyPayments.Count(ctx, userID, repository.Filter{"accountId": accountID})
		if err != nil {
			return err
		}
		if n > 0 {
			return invalid("entry belongs to trip %s; delete the trip payment instead", a.TripID)
		}
		_, err = s.stores.Drivers.Pull(ctx, userID, repository.Filter{"driverId": driverID},
			"accounts", repository.Filter{"accountId": accountID})
		return err
	}
	return notFound("driver account", accountID)
}
