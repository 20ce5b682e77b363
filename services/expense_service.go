package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	mongodb "fleetledger/db/mongo"
	"fleetledger/ledger"
	"fleetledger/models"
	"fleetledger/repository"
	"fleetledger/utils"
)

// PaymentModeCredit books an expense on the shop's khata instead of paying it.
const PaymentModeCredit = "Credit"

type ExpenseService struct {
	stores *repository.Stores
	logger *slog.Logger
}

func NewExpenseService(stores *repository.Stores, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{stores: stores, logger: logger}
}

// ExpenseFilter narrows List. Zero values are ignored.
type ExpenseFilter struct {
	Kind   ledger.ExpenseKind
	TripID string
	Truck  string
	From   time.Time
	To     time.Time
}

// Create stores an expense. Its kind is decided here from the trip and truck
// it references and never changes afterwards. Trip expenses inherit the
// trip's truck; credit expenses at a shop add a line to the shop's khata.
func (s *ExpenseService) Create(ctx context.Context, userID string, e *models.Expense) (*models.Expense, error) {
	e.TripID = strings.TrimSpace(e.TripID)
	e.Truck = strings.TrimSpace(e.Truck)
	e.Kind = ledger.ClassifyExpense(e.TripID, e.Truck)

	switch e.Kind {
	case ledger.TripExpense:
		trip, err := s.stores.Trips.FindOne(ctx, userID, e.TripID)
		if err != nil {
			return nil, err
		}
		if trip == nil {
			return nil, invalid("trip %s does not exist", e.TripID)
		}
		if e.Truck == "" {
			e.Truck = trip.Truck
		}
		if e.DriverID == "" {
			e.DriverID = trip.DriverID
		}
	case ledger.TruckExpense:
		n, err := s.stores.Trucks.Count(ctx, userID, repository.Filter{"truckNo": e.Truck})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, invalid("truck %s does not exist", e.Truck)
		}
	}

	var shop *models.Shop
	if e.ShopID != "" {
		var err error
		shop, err = s.stores.Shops.FindOne(ctx, userID, e.ShopID)
		if err != nil {
			return nil, err
		}
		if shop == nil {
			return nil, invalid("shop %s does not exist", e.ShopID)
		}
	}

	e.UserID = userID
	if e.Date.IsZero() {
		e.Date = timeNow()
	}
	err := mongodb.Try(func() error {
		e.ExpenseID = utils.NewID("exp")
		return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.stores.Expenses.Insert(ctx, e); err != nil {
				return err
			}
			if shop != nil && e.PaymentMode == PaymentModeCredit {
				return s.stores.ShopKhata.Insert(ctx, khataEntryFor(e))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func khataEntryFor(e *models.Expense) *models.ShopKhataAccount {
	return &models.ShopKhataAccount{
		AccountID:   utils.NewID("khata"),
		UserID:      e.UserID,
		ShopID:      e.ShopID,
		Got:         e.Amount,
		Reason:      e.ExpenseType,
		PaymentMode: e.PaymentMode,
		ExpenseID:   e.ExpenseID,
		Date:        e.Date,
	}
}

func (s *ExpenseService) Get(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	e, err := s.stores.Expenses.FindOne(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, notFound("expense", expenseID)
	}
	e.Kind = e.Category()
	return e, nil
}

// List returns expenses newest first. Kind filtering uses the stored kind and
// falls back to inference for records that predate it.
func (s *ExpenseService) List(ctx context.Context, userID string, f ExpenseFilter) ([]*models.Expense, error) {
	q := repository.Filter{}
	if f.TripID != "" {
		q["trip_id"] = f.TripID
	}
	if f.Truck != "" {
		q["truck"] = f.Truck
	}
	expenses, err := s.stores.Expenses.Find(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Expense, 0, len(expenses))
	for _, e := range expenses {
		e.Kind = e.Category()
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Update changes the amount and description of an expense. What it is
// booked against is fixed at creation.
func (s *ExpenseService) Update(ctx context.Context, userID, expenseID string, upd *models.Expense) (*models.Expense, error) {
	e, err := s.stores.Expenses.FindOne(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, notFound("expense", expenseID)
	}
	if (upd.TripID != "" && upd.TripID != e.TripID) || (upd.Truck != "" && upd.Truck != e.Truck) {
		return nil, invalid("an expense cannot be moved to another trip or truck")
	}
	e.Kind = e.Category()
	e.ExpenseType = upd.ExpenseType
	e.Amount = upd.Amount
	e.PaymentMode = upd.PaymentMode
	e.TransactionID = upd.TransactionID
	e.Notes = upd.Notes
	if !upd.Date.IsZero() {
		e.Date = upd.Date
	}

	err = s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Expenses.Replace(ctx, userID, expenseID, e, nil); err != nil {
			return err
		}
		if _, err := s.stores.ShopKhata.DeleteMany(ctx, userID, repository.Filter{"expenseId": expenseID}); err != nil {
			return err
		}
		if e.ShopID != "" && e.PaymentMode == PaymentModeCredit {
			return s.stores.ShopKhata.Insert(ctx, khataEntryFor(e))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID string) error {
	return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stores.ShopKhata.DeleteMany(ctx, userID, repository.Filter{"expenseId": expenseID}); err != nil {
			return err
		}
		err := s.stores.Expenses.Delete(ctx, userID, expenseID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("expense", expenseID)
		}
		return err
	})
}

// Totals sums expenses per kind.
func (s *ExpenseService) Totals(ctx context.Context, userID string) (map[string]float64, error) {
	return expenseTotals(ctx, s.stores, userID)
}

func expenseTotals(ctx context.Context, stores *repository.Stores, userID string) (map[string]float64, error) {
	expenses, err := stores.Expenses.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	byKind := map[ledger.ExpenseKind][]float64{}
	for _, e := range expenses {
		byKind[e.Category()] = append(byKind[e.Category()], e.Amount)
	}
	out := map[string]float64{}
	for _, k := range []ledger.ExpenseKind{ledger.TripExpense, ledger.TruckExpense, ledger.OfficeExpense} {
		out[string(k)] = ledger.Total(byKind[k])
	}
	return out, nil
}
