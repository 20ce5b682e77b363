package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"fleetledger/models"
)

// Stores bundles every collection the services work with.
type Stores struct {
	Trips            Store[models.Trip]
	TripCharges      Store[models.TripCharge]
	PartyPayments    Store[models.PartyPayment]
	Parties          Store[models.Party]
	Suppliers        Store[models.Supplier]
	SupplierAccounts Store[models.SupplierAccount]
	Drivers          Store[models.Driver]
	Trucks           Store[models.Truck]
	Expenses         Store[models.Expense]
	Invoices         Store[models.Invoice]
	Shops            Store[models.Shop]
	ShopKhata        Store[models.ShopKhataAccount]
	Users            UserRepository
	Tx               TxRunner
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// NewMongoStores opens every collection on db. With transactions disabled
// multi-document work runs as an idempotent sequence.
func NewMongoStores(client *mongo.Client, dbName string, transactions bool) *Stores {
	db := client.Database(dbName)
	s := &Stores{
		Trips:            NewMongoStore[models.Trip](db, TripsCollection, "tripId"),
		TripCharges:      NewMongoStore[models.TripCharge](db, TripChargesCollection, "chargeId"),
		PartyPayments:    NewMongoStore[models.PartyPayment](db, PartyPaymentsCollection, "paymentId"),
		Parties:          NewMongoStore[models.Party](db, PartiesCollection, "partyId"),
		Suppliers:        NewMongoStore[models.Supplier](db, SuppliersCollection, "supplierId"),
		SupplierAccounts: NewMongoStore[models.SupplierAccount](db, SupplierAccountsCollection, "accountId"),
		Drivers:          NewMongoStore[models.Driver](db, DriversCollection, "driverId"),
		Trucks:           NewMongoStore[models.Truck](db, TrucksCollection, "truckId"),
		Expenses:         NewMongoStore[models.Expense](db, ExpensesCollection, "expenseId"),
		Invoices:         NewMongoStore[models.Invoice](db, InvoicesCollection, "invoiceId"),
		Shops:            NewMongoStore[models.Shop](db, ShopsCollection, "shopId"),
		ShopKhata:        NewMongoStore[models.ShopKhataAccount](db, ShopKhataCollection, "accountId"),
		Users:            NewStoreUserRepo(NewMongoStore[models.User](db, UsersCollection, "userId").Unique("phone")),
		Tx:               SequentialTx{},
	}
	if transactions {
		s.Tx = &MongoTx{Client: client}
	}
	return s
}

// NewMemoryStores is the in-process equivalent of NewMongoStores.
func NewMemoryStores() *Stores {
	return &Stores{
		Trips:            NewMemoryStore[models.Trip]("tripId"),
		TripCharges:      NewMemoryStore[models.TripCharge]("chargeId"),
		PartyPayments:    NewMemoryStore[models.PartyPayment]("paymentId"),
		Parties:          NewMemoryStore[models.Party]("partyId"),
		Suppliers:        NewMemoryStore[models.Supplier]("supplierId"),
		SupplierAccounts: NewMemoryStore[models.SupplierAccount]("accountId"),
		Drivers:          NewMemoryStore[models.Driver]("driverId"),
		Trucks:           NewMemoryStore[models.Truck]("truckId"),
		Expenses:         NewMemoryStore[models.Expense]("expenseId"),
		Invoices:         NewMemoryStore[models.Invoice]("invoiceId"),
		Shops:            NewMemoryStore[models.Shop]("shopId"),
		ShopKhata:        NewMemoryStore[models.ShopKhataAccount]("accountId"),
		Users:            NewStoreUserRepo(NewMemoryStore[models.User]("userId").Unique("phone")),
		Tx:               SequentialTx{},
	}
}

// EnsureIndexes creates indexes on every Mongo-backed collection.
func (s *Stores) EnsureIndexes(ctx context.Context) error {
	all := []interface{}{
		s.Trips, s.TripCharges, s.PartyPayments, s.Parties, s.Suppliers, s.SupplierAccounts,
		s.Drivers, s.Trucks, s.Expenses, s.Invoices, s.Shops, s.ShopKhata,
	}
	if u, ok := s.Users.(*StoreUserRepo); ok {
		all = append(all, u.Store)
	}
	for _, st := range all {
		if ix, ok := st.(indexer); ok {
			if err := ix.EnsureIndexes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
