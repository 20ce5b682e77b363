package ledger

import "strings"

// ExpenseKind tags an expense as belonging to a trip, a truck or the office.
type ExpenseKind string

const (
	TripExpense   ExpenseKind = "trip"
	TruckExpense  ExpenseKind = "truck"
	OfficeExpense ExpenseKind = "office"
)

// Valid reports whether k is one of the known kinds.
func (k ExpenseKind) Valid() bool {
	switch k {
	case TripExpense, TruckExpense, OfficeExpense:
		return true
	}
	return false
}

// ClassifyExpense infers the kind from the populated foreign keys. An empty
// (or blank) value is the same as a missing one.
func ClassifyExpense(tripID, truck string) ExpenseKind {
	switch {
	case strings.TrimSpace(tripID) != "":
		return TripExpense
	case strings.TrimSpace(truck) != "":
		return TruckExpense
	default:
		return OfficeExpense
	}
}
