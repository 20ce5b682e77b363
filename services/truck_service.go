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

type TruckService struct {
	stores *repository.Stores
	logger *slog.Logger
}

func NewTruckService(stores *repository.Stores, logger *slog.Logger) *TruckService {
	return &TruckService{stores: stores, logger: logger}
}

func (s *TruckService) checkRefs(ctx context.Context, userID string, t *models.Truck) error {
	if t.OwnershipType == "" {
		t.OwnershipType = models.OwnershipSelf
	}
	if t.OwnershipType == models.OwnershipMarket {
		if t.SupplierID == "" {
			return invalid("market truck needs a supplier")
		}
		sup, err := s.stores.Suppliers.FindOne(ctx, userID, t.SupplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			return invalid("supplier %s does not exist", t.SupplierID)
		}
	} else {
		t.SupplierID = ""
	}
	if t.DriverID != "" {
		d, err := s.stores.Drivers.FindOne(ctx, userID, t.DriverID)
		if err != nil {
			return err
		}
		if d == nil {
			return invalid("driver %s does not exist", t.DriverID)
		}
	}
	return nil
}

// Create adds a truck. Truck numbers are unique per account.
func (s *TruckService) Create(ctx context.Context, userID string, t *models.Truck) (*models.Truck, error) {
	n, err := s.stores.Trucks.Count(ctx, userID, repository.Filter{"truckNo": t.TruckNo})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, invalid("truck %s already exists", t.TruckNo)
	}
	if err := s.checkRefs(ctx, userID, t); err != nil {
		return nil, err
	}
	t.UserID = userID
	t.CreatedAt = timeNow()
	if t.Status == "" {
		t.Status = "Available"
	}
	if t.Documents == nil {
		t.Documents = []models.Document{}
	}
	err = mongodb.Try(func() error {
		t.TruckID = utils.NewID("truck")
		return s.stores.Trucks.Insert(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("create truck: %w", err)
	}
	return t, nil
}

// Update changes a truck. The truck number is fixed because trips and
// expenses reference it.
func (s *TruckService) Update(ctx context.Context, userID, truckID string, upd *models.Truck) (*models.Truck, error) {
	t, err := s.stores.Trucks.FindOne(ctx, userID, truckID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("truck", truckID)
	}
	if upd.TruckNo != "" && upd.TruckNo != t.TruckNo {
		return nil, invalid("truck number cannot be changed")
	}
	t.TruckType = upd.TruckType
	t.Model = upd.Model
	t.Capacity = upd.Capacity
	t.BodyLength = upd.BodyLength
	t.OwnershipType = upd.OwnershipType
	t.SupplierID = upd.SupplierID
	t.DriverID = upd.DriverID
	if upd.Status != "" {
		t.Status = upd.Status
	}
	if err := s.checkRefs(ctx, userID, t); err != nil {
		return nil, err
	}
	n, err := s.stores.Trucks.Update(ctx, userID, repository.Filter{"truckId": truckID}, repository.Filter{
		"truckType":  t.TruckType,
		"model":      t.Model,
		"capacity":   t.Capacity,
		"bodyLength": t.BodyLength,
		"ownership":  t.OwnershipType,
		"supplierId": t.SupplierID,
		"driverId":   t.DriverID,
		"status":     t.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("update truck: %w", err)
	}
	if n == 0 {
		return nil, notFound("truck", truckID)
	}
	if t, err = s.stores.Trucks.FindOne(ctx, userID, truckID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TruckService) Delete(ctx context.Context, userID, truckID string) error {
	t, err := s.stores.Trucks.FindOne(ctx, userID, truckID)
	if err != nil {
		return err
	}
	if t == nil {
		return notFound("truck", truckID)
	}
	n, err := s.stores.Trips.Count(ctx, userID, repository.Filter{"truck": t.TruckNo})
	if err != nil {
		return err
	}
	if n > 0 {
		return invalid("truck has %d trips; delete them first", n)
	}
	err = s.stores.Trucks.Delete(ctx, userID, truckID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

func (s *TruckService) List(ctx context.Context, userID string) ([]*models.Truck, error) {
	trucks, err := s.stores.Trucks.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trucks, func(i, j int) bool { return trucks[i].TruckNo < trucks[j].TruckNo })
	return trucks, nil
}

// Get returns a truck with its trips, the revenue they brought in and every
// expense booked against the truck or its trips.
func (s *TruckService) Get(ctx context.Context, userID, truckID string) (*models.TruckDetails, error) {
	t, err := s.stores.Trucks.FindOne(ctx, userID, truckID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("truck", truckID)
	}
	trips, err := s.stores.Trips.Find(ctx, userID, repository.Filter{"truck": t.TruckNo})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartDate.After(trips[j].StartDate) })
	expenses, err := s.stores.Expenses.Find(ctx, userID, repository.Filter{"truck": t.TruckNo})
	if err != nil {
		return nil, err
	}

	var revenue []float64
	for _, trip := range trips {
		revenue = append(revenue, ledger.Compute(ledgerTrip(trip, nil)).Revenue)
	}
	var spent []float64
	for _, e := range expenses {
		spent = append(spent, e.Amount)
	}
	return &models.TruckDetails{
		Truck:    t,
		Revenue:  ledger.Total(revenue),
		Expenses: ledger.Total(spent),
		Trips:    trips,
	}, nil
}
