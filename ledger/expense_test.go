package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyExpense(t *testing.T) {
	cases := []struct {
		tripID, truck string
		want          ExpenseKind
	}{
		{"", "", OfficeExpense},
		{"", "MH12AB1234", TruckExpense},
		{"trip-1", "", TripExpense},
		{"trip-1", "MH12AB1234", TripExpense},
		{"   ", "", OfficeExpense},
		{"", "  ", OfficeExpense},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyExpense(tc.tripID, tc.truck), "trip=%q truck=%q", tc.tripID, tc.truck)
	}
}

func TestExpenseKindValid(t *testing.T) {
	assert.True(t, TripExpense.Valid())
	assert.True(t, OfficeExpense.Valid())
	assert.False(t, ExpenseKind("fuel").Valid())
}
