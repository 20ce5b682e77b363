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

type SupplierService struct {
	stores *repository.Stores
	logger *slog.Logger
}

func NewSupplierService(stores *repository.Stores, logger *slog.Logger) *SupplierService {
	return &SupplierService{stores: stores, logger: logger}
}

func (s *SupplierService) Create(ctx context.Context, userID string, sup *models.Supplier) (*models.Supplier, error) {
	sup.UserID = userID
	sup.CreatedAt = timeNow()
	if sup.Documents == nil {
		sup.Documents = []models.Document{}
	}
	err := mongodb.Try(func() error {
		sup.SupplierID = utils.NewID("supplier")
		return s.stores.Suppliers.Insert(ctx, sup)
	})
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return sup, nil
}

func (s *SupplierService) Update(ctx context.Context, userID, supplierID string, upd *models.Supplier) (*models.Supplier, error) {
	n, err := s.stores.Suppliers.Update(ctx, userID, repository.Filter{"supplierId": supplierID}, repository.Filter{
		"name":          upd.Name,
		"contactNumber": upd.ContactNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	sup, err := s.stores.Suppliers.FindOne(ctx, userID, supplierID)
	if err != nil {
		return nil, err
	}
	if n == 0 || sup == nil {
		return nil, notFound("supplier", supplierID)
	}
	return sup, nil
}

func (s *SupplierService) Delete(ctx context.Context, userID, supplierID string) error {
	n, err := s.stores.Trips.Count(ctx, userID, repository.Filter{"supplierId": supplierID})
	if err != nil {
		return err
	}
	if n > 0 {
		return invalid("supplier has %d trips; delete them first", n)
	}
	return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stores.SupplierAccounts.DeleteMany(ctx, userID, repository.Filter{"supplierId": supplierID}); err != nil {
			return err
		}
		err := s.stores.Suppliers.Delete(ctx, userID, supplierID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("supplier", supplierID)
		}
		return err
	})
}

type SupplierSummary struct {
	*models.Supplier
	Balance float64 `json:"balance"`
}

func (s *SupplierService) List(ctx context.Context, userID string) ([]*SupplierSummary, error) {
	suppliers, err := s.stores.Suppliers.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*SupplierSummary, 0, len(suppliers))
	for _, sup := range suppliers {
		out = append(out, &SupplierSummary{Supplier: sup, Balance: balances[sup.SupplierID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// balances returns what is owed to each supplier.
func (s *SupplierService) balances(ctx context.Context, userID string) (map[string]float64, error) {
	trips, err := s.stores.Trips.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	payments, err := s.stores.SupplierAccounts.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	hire := map[string][]float64{}
	for _, t := range trips {
		if t.SupplierID != "" {
			hire[t.SupplierID] = append(hire[t.SupplierID], t.TruckHireCost)
		}
	}
	paid := map[string][]float64{}
	for _, p := range payments {
		paid[p.SupplierID] = append(paid[p.SupplierID], p.Amount)
	}
	out := map[string]float64{}
	for id := range hire {
		out[id] = ledger.SupplierBalance(hire[id], paid[id])
	}
	for id := range paid {
		if _, ok := out[id]; !ok {
			out[id] = ledger.SupplierBalance(nil, paid[id])
		}
	}
	return out, nil
}

func (s *SupplierService) Get(ctx context.Context, userID, supplierID string) (*models.SupplierDetails, error) {
	sup, err := s.stores.Suppliers.FindOne(ctx, userID, supplierID)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, notFound("supplier", supplierID)
	}
	trips, err := s.stores.Trips.Find(ctx, userID, repository.Filter{"supplierId": supplierID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].StartDate.After(trips[j].StartDate) })
	payments, err := s.stores.SupplierAccounts.Find(ctx, userID, repository.Filter{"supplierId": supplierID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].Date.After(payments[j].Date) })

	var hire, paid []float64
	for _, t := range trips {
		hire = append(hire, t.TruckHireCost)
	}
	for _, p := range payments {
		paid = append(paid, p.Amount)
	}
	return &models.SupplierDetails{
		Supplier: sup,
		Balance:  ledger.SupplierBalance(hire, paid),
		Trips:    trips,
		Payments: payments,
	}, nil
}

// AddPayment records a payment to a supplier for one of its trips. The
// payments for a trip may not exceed its truck hire cost.
func (s *SupplierService) AddPayment(ctx context.Context, userID, supplierID string, p models.SupplierAccount) (*models.SupplierAccount, error) {
	trip, err := s.stores.Trips.FindOne(ctx, userID, p.TripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, notFound("trip", p.TripID)
	}
	if trip.SupplierID != supplierID {
		return nil, invalid("trip %s is not supplied by %s", p.TripID, supplierID)
	}
	existing, err := s.stores.SupplierAccounts.Find(ctx, userID, repository.Filter{"trip_id": p.TripID})
	if err != nil {
		return nil, err
	}
	paid := []float64{p.Amount}
	for _, e := range existing {
		paid = append(paid, e.Amount)
	}
	if err := ledger.Validate(ledger.SupplierBalance([]float64{trip.TruckHireCost}, paid)); err != nil {
		return nil, fmt.Errorf("add supplier payment: %w", err)
	}

	p.UserID = userID
	p.SupplierID = supplierID
	if p.Date.IsZero() {
		p.Date = timeNow()
	}
	err = mongodb.Try(func() error {
		p.AccountID = utils.NewID("supacc")
		return s.stores.SupplierAccounts.Insert(ctx, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("add supplier payment: %w", err)
	}
	return &p, nil
}

func (s *SupplierService) DeletePayment(ctx context.Context, userID, supplierID, accountID string) error {
	n, err := s.stores.SupplierAccounts.DeleteMany(ctx, userID, repository.Filter{"accountId": accountID, "supplierId": supplierID})
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("supplier payment", accountID)
	}
	return nil
}
