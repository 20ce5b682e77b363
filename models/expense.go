package models

import (
	"time"

	"fleetledger/ledger"
)

type Expense struct {
	ExpenseID     string             `json:"id" bson:"expenseId"`
	UserID        string             `json:"user_id" bson:"userId"`
	Kind          ledger.ExpenseKind `json:"kind" bson:"kind,omitempty"`
	TripID        string             `json:"trip_id,omitempty" bson:"trip_id,omitempty"`
	Truck         string             `json:"truck,omitempty" bson:"truck,omitempty"`
	DriverID      string             `json:"driver,omitempty" bson:"driverId,omitempty"`
	ShopID        string             `json:"shop_id,omitempty" bson:"shop_id,omitempty"`
	ExpenseType   string             `json:"expenseType" bson:"expenseType" validate:"required"`
	Amount        float64            `json:"amount" bson:"amount" validate:"gt=0"`
	PaymentMode   string             `json:"paymentMode" bson:"paymentMode"`
	TransactionID string             `json:"transaction_id,omitempty" bson:"transactionId,omitempty"`
	Date          time.Time          `json:"date" bson:"date"`
	Notes         string             `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Category returns the stored kind, falling back to inference for records
// written before the kind was persisted.
func (e *Expense) Category() ledger.ExpenseKind {
	if e.Kind.Valid() {
		return e.Kind
	}
	return ledger.ClassifyExpense(e.TripID, e.Truck)
}
