package models

import "time"

// DriverAccount is one line of a driver's running khata.
type DriverAccount struct {
	AccountID   string    `json:"account_id" bson:"accountId"`
	TripID      string    `json:"trip_id,omitempty" bson:"trip_id,omitempty"`
	Got         float64   `json:"got" bson:"got" validate:"gte=0"`
	Gave        float64   `json:"gave" bson:"gave" validate:"gte=0"`
	Reason      string    `json:"reason" bson:"reason"`
	PaymentMode string    `json:"paymentMode,omitempty" bson:"paymentMode,omitempty"`
	Date        time.Time `json:"date" bson:"date"`
}

type Driver struct {
	DriverID      string          `json:"driver_id" bson:"driverId"`
	UserID        string          `json:"user_id" bson:"userId"`
	Name          string          `json:"name" bson:"name" validate:"required"`
	ContactNumber string          `json:"contactNumber" bson:"contactNumber" validate:"omitempty,phone"`
	LicenseNo     string          `json:"licenseNo,omitempty" bson:"licenseNo,omitempty"`
	AadharNo      string          `json:"aadharNo,omitempty" bson:"aadharNo,omitempty"`
	Status        string          `json:"status" bson:"status"`
	Accounts      []DriverAccount `json:"accounts" bson:"accounts"`
	Documents     []Document      `json:"documents" bson:"documents"`
	CreatedAt     time.Time       `json:"createdAt" bson:"createdAt"`
}

type DriverDetails struct {
	*Driver
	Balance float64 `json:"balance"`
	Trips   []*Trip `json:"trips"`
}
