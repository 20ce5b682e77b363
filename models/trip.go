package models

import "time"

// Trip status ordinals.
const (
	TripCreated = iota
	TripLoading
	TripInTransit
	TripDelivered
	TripInvoiced
)

// TripStatusLabels maps a status ordinal to its display label.
var TripStatusLabels = [...]string{"Started", "Loading", "In Transit", "Delivered", "Invoiced"}

type Route struct {
	Origin      string `json:"origin" bson:"origin" validate:"required"`
	Destination string `json:"destination" bson:"destination" validate:"required"`
}

// TripAccount is a payment received against a trip.
type TripAccount struct {
	AccountID        string    `json:"accountId" bson:"accountId"`
	Amount           float64   `json:"amount" bson:"amount" validate:"gt=0"`
	PaymentType      string    `json:"paymentType" bson:"paymentType"`
	Date             time.Time `json:"date" bson:"date"`
	Notes            string    `json:"notes,omitempty" bson:"notes,omitempty"`
	ReceivedByDriver bool      `json:"receivedByDriver" bson:"receivedByDriver"`
}

type Trip struct {
	TripID         string        `json:"trip_id" bson:"tripId"`
	UserID         string        `json:"user_id" bson:"userId"`
	PartyID        string        `json:"party" bson:"partyId" validate:"required"`
	Truck          string        `json:"truck" bson:"truck" validate:"required"`
	DriverID       string        `json:"driver" bson:"driverId"`
	SupplierID     string        `json:"supplierId,omitempty" bson:"supplierId,omitempty"`
	Route          Route         `json:"route" bson:"route"`
	BillingType    string        `json:"billingType" bson:"billingType"`
	PerUnit        float64       `json:"perUnit" bson:"perUnit" validate:"gte=0"`
	TotalUnits     float64       `json:"totalUnits" bson:"totalUnits" validate:"gte=0"`
	Amount         float64       `json:"amount" bson:"amount" validate:"gte=0"`
	TruckHireCost  float64       `json:"truckHireCost" bson:"truckHireCost" validate:"gte=0"`
	LR             string        `json:"LR" bson:"lr"`
	Material       []string      `json:"material,omitempty" bson:"material,omitempty"`
	StartDate      time.Time     `json:"startDate" bson:"startDate"`
	StartKmReading float64       `json:"startKmReading" bson:"startKmReading"`
	Status         int           `json:"status" bson:"status" validate:"gte=0,lte=4"`
	Dates          [5]*time.Time `json:"dates" bson:"dates"`
	Accounts       []TripAccount `json:"accounts" bson:"accounts" validate:"dive"`
	Documents      []Document    `json:"documents" bson:"documents"`
	Invoice        bool          `json:"invoice" bson:"invoice"`
	InvoiceID      string        `json:"invoice_id" bson:"invoice_id"`
	Notes          string        `json:"notes,omitempty" bson:"notes,omitempty"`
	Version        int64         `json:"version" bson:"version"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
}

// TripCharge is an itemised cost on a trip, optionally re-billed to the party.
type TripCharge struct {
	ChargeID    string    `json:"id" bson:"chargeId"`
	UserID      string    `json:"user_id" bson:"userId"`
	TripID      string    `json:"trip_id" bson:"trip_id"`
	PartyID     string    `json:"partyId" bson:"partyId"`
	ExpenseType string    `json:"expenseType" bson:"expenseType" validate:"required"`
	Amount      float64   `json:"amount" bson:"amount" validate:"gt=0"`
	PartyBill   bool      `json:"partyBill" bson:"partyBill"`
	Date        time.Time `json:"date" bson:"date"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

// TripDetails is a trip with its charges and computed aggregates.
type TripDetails struct {
	*Trip
	Charges         []*TripCharge `json:"tripCharges"`
	Balance         float64       `json:"balance"`
	Revenue         float64       `json:"revenue"`
	ChargeToBill    float64       `json:"chargeToBill"`
	ChargeNotToBill float64       `json:"chargeNotToBill"`
	AccountBalance  float64       `json:"accountBalance"`
	Expenses        float64       `json:"expenses"`
	Profit          float64       `json:"profit"`
	PartyName       string        `json:"partyName,omitempty"`
	DriverName      string        `json:"driverName,omitempty"`
}
