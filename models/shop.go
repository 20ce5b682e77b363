package models

import "time"

type Shop struct {
	ShopID        string    `json:"shop_id" bson:"shopId"`
	UserID        string    `json:"user_id" bson:"userId"`
	Name          string    `json:"name" bson:"name" validate:"required"`
	ContactNumber string    `json:"contactNumber" bson:"contactNumber" validate:"omitempty,phone"`
	Address       string    `json:"address" bson:"address"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// ShopKhataAccount is one line of a shop ledger. Got is goods or credit taken
// from the shop, Gave is a payment to the shop.
type ShopKhataAccount struct {
	AccountID   string    `json:"_id" bson:"accountId"`
	UserID      string    `json:"user_id" bson:"userId"`
	ShopID      string    `json:"shop_id" bson:"shop_id"`
	Got         float64   `json:"credit" bson:"got" validate:"gte=0"`
	Gave        float64   `json:"payment" bson:"gave" validate:"gte=0"`
	Reason      string    `json:"reason" bson:"reason"`
	PaymentMode string    `json:"paymentMode,omitempty" bson:"paymentMode,omitempty"`
	ExpenseID   string    `json:"expense_id,omitempty" bson:"expenseId,omitempty"`
	Date        time.Time `json:"date" bson:"date"`
}

type ShopDetails struct {
	*Shop
	Balance  float64             `json:"balance"`
	Accounts []*ShopKhataAccount `json:"accounts"`
}
