// Package ledger computes running balances for trips, parties, suppliers,
// drivers and shop khatas, and guards mutations that would push a balance
// below zero.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNegativeBalance is returned when a candidate state would leave a balance below zero.
var ErrNegativeBalance = errors.New("balance going negative")

// Charge is a trip charge line. PartyBill charges are re-billed to the party,
// the rest are absorbed by the trip.
type Charge struct {
	Amount    float64
	PartyBill bool
}

// Trip is the money-movement view of a single trip.
type Trip struct {
	Amount   float64
	Charges  []Charge
	Accounts []float64
}

// Summary holds every aggregate derived from a Trip.
type Summary struct {
	ChargeToBill    float64 `json:"chargeToBill"`
	ChargeNotToBill float64 `json:"chargeNotToBill"`
	AccountBalance  float64 `json:"accountBalance"`
	Balance         float64 `json:"balance"`
	Revenue         float64 `json:"revenue"`
}

func sum(values []float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

func splitCharges(charges []Charge) (toBill, notToBill decimal.Decimal) {
	toBill, notToBill = decimal.Zero, decimal.Zero
	for _, c := range charges {
		if c.PartyBill {
			toBill = toBill.Add(decimal.NewFromFloat(c.Amount))
		} else {
			notToBill = notToBill.Add(decimal.NewFromFloat(c.Amount))
		}
	}
	return toBill, notToBill
}

// Compute returns the balance and revenue of a trip.
//
//	balance = (amount + chargeToBill) - (accountBalance + chargeNotToBill)
//	revenue = amount + accountBalance
func Compute(t Trip) Summary {
	base := decimal.NewFromFloat(t.Amount)
	toBill, notToBill := splitCharges(t.Charges)
	accounts := sum(t.Accounts)

	balance := base.Add(toBill).Sub(accounts.Add(notToBill))
	revenue := base.Add(accounts)

	return Summary{
		ChargeToBill:    toBill.InexactFloat64(),
		ChargeNotToBill: notToBill.InexactFloat64(),
		AccountBalance:  accounts.InexactFloat64(),
		Balance:         balance.InexactFloat64(),
		Revenue:         revenue.InexactFloat64(),
	}
}

// Balance is shorthand for Compute(t).Balance.
func Balance(amount float64, charges []Charge, accounts []float64) float64 {
	return Compute(Trip{Amount: amount, Charges: charges, Accounts: accounts}).Balance
}

// Validate rejects a negative balance.
func Validate(balance float64) error {
	if balance < 0 {
		return ErrNegativeBalance
	}
	return nil
}

// Check computes the balance of a candidate trip state and validates it.
func Check(t Trip) (Summary, error) {
	s := Compute(t)
	return s, Validate(s.Balance)
}

// Billable is what the party is charged for a trip: amount plus billed charges
// minus the charges the business absorbs.
func Billable(t Trip) float64 {
	toBill, notToBill := splitCharges(t.Charges)
	return decimal.NewFromFloat(t.Amount).Add(toBill).Sub(notToBill).InexactFloat64()
}

// PartyBalance sums the balances of a party's trips and subtracts payments
// that were not allocated to any trip.
func PartyBalance(trips []Trip, advances []float64) float64 {
	total := decimal.Zero
	for _, t := range trips {
		total = total.Add(decimal.NewFromFloat(Compute(t).Balance))
	}
	return total.Sub(sum(advances)).InexactFloat64()
}

// SupplierBalance is what is still owed to a supplier.
func SupplierBalance(hireCosts, payments []float64) float64 {
	return sum(hireCosts).Sub(sum(payments)).InexactFloat64()
}

// Total sums amounts.
func Total(values []float64) float64 {
	return sum(values).InexactFloat64()
}

// Net returns Σgot - Σgave. Used for driver accounts and shop khatas.
func Net(got, gave []float64) float64 {
	return sum(got).Sub(sum(gave)).InexactFloat64()
}

// Profit of a trip after its own expenses and the market truck hire.
func Profit(t Trip, expenses []float64, truckHireCost float64) float64 {
	return decimal.NewFromFloat(Billable(t)).
		Sub(sum(expenses)).
		Sub(decimal.NewFromFloat(truckHireCost)).
		InexactFloat64()
}

// Freight is the trip amount for per-unit billing.
func Freight(perUnit, units float64) float64 {
	return decimal.NewFromFloat(perUnit).Mul(decimal.NewFromFloat(units)).Round(2).InexactFloat64()
}

// Invoice statuses.
const (
	InvoiceDue           = "Due"
	InvoicePartiallyPaid = "Partially Paid"
	InvoicePaid          = "Paid"
)

// InvoiceStatus derives the status label from an invoice's total and advance.
func InvoiceStatus(total, advance float64) string {
	switch {
	case advance <= 0:
		return InvoiceDue
	case decimal.NewFromFloat(advance).GreaterThanOrEqual(decimal.NewFromFloat(total)):
		return InvoicePaid
	default:
		return InvoicePartiallyPaid
	}
}
