package services

import (
	"context"
	"fmt"
	"log/slog"

	"fleetledger/repository"
)

// AccountService removes an account with everything it owns.
type AccountService struct {
	stores *repository.Stores
	logger *slog.Logger
}

func NewAccountService(stores *repository.Stores, logger *slog.Logger) *AccountService {
	return &AccountService{stores: stores, logger: logger}
}

type bulkDeleter interface {
	DeleteMany(ctx context.Context, userID string, filter repository.Filter) (int64, error)
}

// Delete wipes every collection scoped to userID and finally the user
// record. Without a transaction each step is idempotent, so calling it again
// after a partial failure completes the deletion.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return invalid("user id required")
	}
	collections := []struct {
		name  string
		store bulkDeleter
	}{
		{repository.TripChargesCollection, s.stores.TripCharges},
		{repository.PartyPaymentsCollection, s.stores.PartyPayments},
		{repository.SupplierAccountsCollection, s.stores.SupplierAccounts},
		{repository.ShopKhataCollection, s.stores.ShopKhata},
		{repository.ExpensesCollection, s.stores.Expenses},
		{repository.InvoicesCollection, s.stores.Invoices},
		{repository.TripsCollection, s.stores.Trips},
		{repository.PartiesCollection, s.stores.Parties},
		{repository.SuppliersCollection, s.stores.Suppliers},
		{repository.DriversCollection, s.stores.Drivers},
		{repository.TrucksCollection, s.stores.Trucks},
		{repository.ShopsCollection, s.stores.Shops},
	}

	return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, c := range collections {
			n, err := c.store.DeleteMany(ctx, userID, nil)
			if err != nil {
				return fmt.Errorf("delete %s: %w", c.name, err)
			}
			s.logger.Debug("account data deleted", "user_id", userID, "collection", c.name, "count", n)
		}
		if err := s.stores.Users.DeleteUser(ctx, userID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		s.logger.Info("account deleted", "user_id", userID)
		return nil
	})
}
