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

// ShopService keeps the khata (running credit ledger) with vendor shops.
type ShopService struct {
	stores *repository.Stores
	logger *slog.Logger
}

func NewShopService(stores *repository.Stores, logger *slog.Logger) *ShopService {
	return &ShopService{stores: stores, logger: logger}
}

func khataBalance(accounts []*models.ShopKhataAccount) float64 {
	var got, gave []float64
	for _, a := range accounts {
		got = append(got, a.Got)
		gave = append(gave, a.Gave)
	}
	return ledger.Net(got, gave)
}

func (s *ShopService) Create(ctx context.Context, userID string, shop *models.Shop) (*models.Shop, error) {
	shop.UserID = userID
	shop.CreatedAt = timeNow()
	err := mongodb.Try(func() error {
		shop.ShopID = utils.NewID("shop")
		return s.stores.Shops.Insert(ctx, shop)
	})
	if err != nil {
		return nil, fmt.Errorf("create shop: %w", err)
	}
	return shop, nil
}

func (s *ShopService) Update(ctx context.Context, userID, shopID string, upd *models.Shop) (*models.Shop, error) {
	shop, err := s.stores.Shops.FindOne(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, notFound("shop", shopID)
	}
	shop.Name = upd.Name
	shop.ContactNumber = upd.ContactNumber
	shop.Address = upd.Address
	if err := s.stores.Shops.Replace(ctx, userID, shopID, shop, nil); err != nil {
		return nil, fmt.Errorf("update shop: %w", err)
	}
	return shop, nil
}

// Delete removes a shop with its khata. Expenses that were booked on credit
// at the shop keep existing but lose the shop reference.
func (s *ShopService) Delete(ctx context.Context, userID, shopID string) error {
	return s.stores.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stores.ShopKhata.DeleteMany(ctx, userID, repository.Filter{"shop_id": shopID}); err != nil {
			return err
		}
		if _, err := s.stores.Expenses.Update(ctx, userID, repository.Filter{"shop_id": shopID}, repository.Filter{"shop_id": ""}); err != nil {
			return err
		}
		err := s.stores.Shops.Delete(ctx, userID, shopID)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("shop", shopID)
		}
		return err
	})
}

type ShopSummary struct {
	*models.Shop
	Balance float64 `json:"balance"`
}

func (s *ShopService) List(ctx context.Context, userID string) ([]*ShopSummary, error) {
	shops, err := s.stores.Shops.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	accounts, err := s.stores.ShopKhata.Find(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	byShop := map[string][]*models.ShopKhataAccount{}
	for _, a := range accounts {
		byShop[a.ShopID] = append(byShop[a.ShopID], a)
	}
	out := make([]*ShopSummary, 0, len(shops))
	for _, shop := range shops {
		out = append(out, &ShopSummary{Shop: shop, Balance: khataBalance(byShop[shop.ShopID])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *ShopService) Get(ctx context.Context, userID, shopID string) (*models.ShopDetails, error) {
	shop, err := s.stores.Shops.FindOne(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, notFound("shop", shopID)
	}
	accounts, err := s.stores.ShopKhata.Find(ctx, userID, repository.Filter{"shop_id": shopID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].Date.After(accounts[j].Date) })
	return &models.ShopDetails{Shop: shop, Balance: khataBalance(accounts), Accounts: accounts}, nil
}

// AddAccount records goods taken on credit (got) or a payment to the shop (gave).
func (s *ShopService) AddAccount(ctx context.Context, userID, shopID string, acc models.ShopKhataAccount) (*models.ShopKhataAccount, error) {
	if (acc.Got > 0) == (acc.Gave > 0) {
		return nil, invalid("exactly one of credit or payment must be positive")
	}
	shop, err := s.stores.Shops.FindOne(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, notFound("shop", shopID)
	}
	acc.UserID = userID
	acc.ShopID = shopID
	acc.ExpenseID = ""
	if acc.Date.IsZero() {
		acc.Date = timeNow()
	}
	err = mongodb.Try(func() error {
		acc.AccountID = utils.NewID("khata")
		return s.stores.ShopKhata.Insert(ctx, &acc)
	})
	if err != nil {
		return nil, fmt.Errorf("add khata entry: %w", err)
	}
	return &acc, nil
}

// DeleteAccount removes a khata entry. Entries created by a credit expense
// are removed by deleting the expense.
func (s *ShopService) DeleteAccount(ctx context.Context, userID, shopID, accountID string) error {
	acc, err := s.stores.ShopKhata.FindOne(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if acc == nil || acc.ShopID != shopID {
		return notFound("khata entry", accountID)
	}
	if acc.ExpenseID != "" {
		return invalid("entry belongs to expense %s; delete the expense instead", acc.ExpenseID)
	}
	return s.stores.ShopKhata.Delete(ctx, userID, accountID)
}
