package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Replace and Delete when no document matched.
var ErrNotFound = errors.New("document not found")

// Filter is an equality filter on document (bson) field names. A []string
// value matches any of its elements. Dotted paths reach into embedded arrays.
type Filter map[string]interface{}

// Store is a collection of documents owned by users. Every call is scoped to
// userID; an empty userID disables the scope and is only used for lookups
// across accounts (users by phone).
type Store[T any] interface {
	Insert(ctx context.Context, doc *T) error
	// FindOne returns nil, nil when the document does not exist.
	FindOne(ctx context.Context, userID, id string) (*T, error)
	Find(ctx context.Context, userID string, filter Filter) ([]*T, error)
	// Replace swaps the whole document. cond adds extra match conditions
	// (e.g. an expected version); ErrNotFound is returned when nothing matched.
	Replace(ctx context.Context, userID, id string, doc *T, cond Filter) error
	// Update sets fields on every matching document and returns the match count.
	Update(ctx context.Context, userID string, filter Filter, set Filter) (int64, error)
	// Push appends item to the array field of one document in a single write.
	// ErrNotFound is returned when the document does not exist.
	Push(ctx context.Context, userID, id, field string, item interface{}) error
	// Pull removes the elements of the array field that match match from every
	// document matching filter, and returns how many documents changed.
	Pull(ctx context.Context, userID string, filter Filter, field string, match Filter) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteMany(ctx context.Context, userID string, filter Filter) (int64, error)
	Count(ctx context.Context, userID string, filter Filter) (int64, error)
}

// TxRunner runs fn as one unit of work. Implementations that cannot provide
// atomicity run fn directly, so every step inside fn must be idempotent.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SequentialTx runs fn without a transaction.
type SequentialTx struct{}

func (SequentialTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const ownerField = "userId"

// Collection names.
const (
	TripsCollection            = "trips"
	TripChargesCollection      = "tripCharges"
	PartyPaymentsCollection    = "partyPayments"
	PartiesCollection          = "parties"
	SuppliersCollection        = "suppliers"
	SupplierAccountsCollection = "supplierAccounts"
	DriversCollection          = "drivers"
	TrucksCollection           = "trucks"
	ExpensesCollection         = "expenses"
	InvoicesCollection         = "invoices"
	ShopsCollection            = "shops"
	ShopKhataCollection        = "shopKhata"
	UsersCollection            = "users"
)
