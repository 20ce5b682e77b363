package models

import "time"

type Supplier struct {
	SupplierID    string     `json:"supplier_id" bson:"supplierId"`
	UserID        string     `json:"user_id" bson:"userId"`
	Name          string     `json:"name" bson:"name" validate:"required"`
	ContactNumber string     `json:"contactNumber" bson:"contactNumber" validate:"omitempty,phone"`
	Documents     []Document `json:"documents" bson:"documents"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
}

// SupplierAccount is a payment made to a supplier for a trip.
type SupplierAccount struct {
	AccountID   string    `json:"_id" bson:"accountId"`
	UserID      string    `json:"user_id" bson:"userId"`
	SupplierID  string    `json:"supplier_id" bson:"supplierId"`
	TripID      string    `json:"trip_id" bson:"trip_id" validate:"required"`
	Amount      float64   `json:"amount" bson:"amount" validate:"gt=0"`
	PaymentMode string    `json:"paymentMode" bson:"paymentMode"`
	Date        time.Time `json:"date" bson:"date"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

type SupplierDetails struct {
	*Supplier
	Balance  float64            `json:"balance"`
	Trips    []*Trip            `json:"trips"`
	Payments []*SupplierAccount `json:"payments"`
}
