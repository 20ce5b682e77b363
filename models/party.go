package models

import "time"

type Party struct {
	PartyID       string     `json:"party_id" bson:"partyId"`
	UserID        string     `json:"user_id" bson:"userId"`
	Name          string     `json:"name" bson:"name" validate:"required"`
	ContactPerson string     `json:"contactPerson" bson:"contactPerson"`
	ContactNumber string     `json:"contactNumber" bson:"contactNumber" validate:"omitempty,phone"`
	Address       string     `json:"address" bson:"address"`
	GSTNumber     string     `json:"gstNumber" bson:"gstNumber" validate:"omitempty,gstin"`
	PAN           string     `json:"pan,omitempty" bson:"pan,omitempty"`
	Documents     []Document `json:"documents" bson:"documents"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
}

// PartyPayment is money received from a party. When TripID is set the
// payment is mirrored as a trip account identified by AccountID.
type PartyPayment struct {
	PaymentID        string    `json:"_id" bson:"paymentId"`
	UserID           string    `json:"user_id" bson:"userId"`
	PartyID          string    `json:"party_id" bson:"partyId" validate:"required"`
	TripID           string    `json:"trip_id,omitempty" bson:"trip_id,omitempty"`
	AccountID        string    `json:"accountId,omitempty" bson:"accountId,omitempty"`
	DriverID         string    `json:"driver_id,omitempty" bson:"driverId,omitempty"`
	Amount           float64   `json:"amount" bson:"amount" validate:"gt=0"`
	PaymentType      string    `json:"paymentType" bson:"paymentType" validate:"required"`
	ReceivedByDriver bool      `json:"receivedByDriver" bson:"receivedByDriver"`
	Date             time.Time `json:"date" bson:"date"`
	Notes            string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

// PartyDetails is a party with its balance and ledger.
type PartyDetails struct {
	*Party
	Balance  float64         `json:"balance"`
	Revenue  float64         `json:"revenue"`
	Trips    []*TripDetails  `json:"trips"`
	Payments []*PartyPayment `json:"payments"`
}
