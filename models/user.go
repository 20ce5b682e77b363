package models

import "time"

// Roles.
const (
	RoleOwner      = "owner"
	RoleDriver     = "driver"
	RoleAccountant = "accountant"
)

// Delegate grants another phone number access to this account with a role.
type Delegate struct {
	Phone string `json:"phone" bson:"phone" db:"phone" validate:"required,phone"`
	Role  string `json:"role" bson:"role" db:"role" validate:"required,oneof=driver accountant"`
}

type User struct {
	UserID      string     `json:"user_id" bson:"userId" db:"user_id"`
	Phone       string     `json:"phone" bson:"phone" db:"phone"`
	Name        string     `json:"name" bson:"name" db:"name"`
	CompanyName string     `json:"company" bson:"company" db:"company"`
	Address     string     `json:"address,omitempty" bson:"address,omitempty" db:"address"`
	GSTNumber   string     `json:"gstNumber,omitempty" bson:"gstNumber,omitempty" db:"gst_number"`
	Role        string     `json:"role" bson:"role" db:"role"`
	Delegates   []Delegate `json:"delegates" bson:"delegates" db:"-"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt" db:"created_at"`
}

// DashboardSummary is the aggregated home screen view.
type DashboardSummary struct {
	TripCount         int                `json:"tripCount"`
	TripsByStatus     [5]int             `json:"tripsByStatus"`
	Revenue           float64            `json:"revenue"`
	PartyBalance      float64            `json:"partyBalance"`
	SupplierBalance   float64            `json:"supplierBalance"`
	DriverBalance     float64            `json:"driverBalance"`
	ExpensesByKind    map[string]float64 `json:"expensesByKind"`
	TruckCount        int                `json:"truckCount"`
	ExpiringDocuments int                `json:"expiringDocuments"`
}
