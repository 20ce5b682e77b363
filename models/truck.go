package models

import "time"

const (
	OwnershipSelf   = "Self"
	OwnershipMarket = "Market"
)

type Truck struct {
	TruckID       string     `json:"truck_id" bson:"truckId"`
	UserID        string     `json:"user_id" bson:"userId"`
	TruckNo       string     `json:"truckNo" bson:"truckNo" validate:"required"`
	TruckType     string     `json:"truckType" bson:"truckType"`
	Model         string     `json:"model,omitempty" bson:"model,omitempty"`
	Capacity      string     `json:"capacity,omitempty" bson:"capacity,omitempty"`
	BodyLength    float64    `json:"bodyLength,omitempty" bson:"bodyLength,omitempty"`
	OwnershipType string     `json:"ownership" bson:"ownership" validate:"omitempty,oneof=Self Market"`
	SupplierID    string     `json:"supplier,omitempty" bson:"supplierId,omitempty"`
	DriverID      string     `json:"driver_id,omitempty" bson:"driverId,omitempty"`
	Status        string     `json:"status" bson:"status"`
	Documents     []Document `json:"documents" bson:"documents"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
}

type TruckDetails struct {
	*Truck
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Trips    []*Trip `json:"trips"`
}
