package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Formula(t *testing.T) {
	cases := []struct {
		name     string
		trip     Trip
		expected float64
	}{
		{"no charges no accounts", Trip{Amount: 5000}, 5000},
		{"only billed charges", Trip{Amount: 5000, Charges: []Charge{{Amount: 250, PartyBill: true}, {Amount: 50, PartyBill: true}}}, 5300},
		{"only absorbed charges", Trip{Amount: 5000, Charges: []Charge{{Amount: 400}}}, 4600},
		{"only accounts", Trip{Amount: 5000, Accounts: []float64{1000, 1500}}, 2500},
		{"everything", Trip{Amount: 5000, Charges: []Charge{{Amount: 100, PartyBill: true}, {Amount: 300}}, Accounts: []float64{800}}, 4000},
		{"zero base", Trip{Charges: []Charge{{Amount: 100, PartyBill: true}}}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Compute(tc.trip)
			assert.Equal(t, tc.expected, s.Balance)
			assert.Equal(t, tc.expected, Balance(tc.trip.Amount, tc.trip.Charges, tc.trip.Accounts))
		})
	}
}

func TestCompute_ExampleScenario(t *testing.T) {
	trip := Trip{
		Amount:   10000,
		Charges:  []Charge{{Amount: 500, PartyBill: true}, {Amount: 200, PartyBill: false}},
		Accounts: []float64{300},
	}

	s, err := Check(trip)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, s.Balance)
	assert.Equal(t, 500.0, s.ChargeToBill)
	assert.Equal(t, 200.0, s.ChargeNotToBill)
	assert.Equal(t, 300.0, s.AccountBalance)
}

func TestCheck_RejectsOverpayment(t *testing.T) {
	trip := Trip{
		Amount:   10000,
		Charges:  []Charge{{Amount: 500, PartyBill: true}, {Amount: 200, PartyBill: false}},
		Accounts: []float64{300, 10500},
	}

	s, err := Check(trip)
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.Equal(t, -500.0, s.Balance)
}

func TestCompute_RevenueIsNotBalance(t *testing.T) {
	trip := Trip{Amount: 1000, Charges: []Charge{{Amount: 100, PartyBill: true}}, Accounts: []float64{400}}

	s := Compute(trip)
	assert.Equal(t, 1400.0, s.Revenue)
	assert.Equal(t, 700.0, s.Balance)
}

func TestCompute_DecimalSums(t *testing.T) {
	s := Compute(Trip{Amount: 0.3, Accounts: []float64{0.1, 0.2}})
	assert.Equal(t, 0.0, s.Balance)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(0))
	assert.NoError(t, Validate(12.5))
	assert.ErrorIs(t, Validate(-0.01), ErrNegativeBalance)
}

func TestPartyBalance(t *testing.T) {
	trips := []Trip{
		{Amount: 1000, Accounts: []float64{200}},
		{Amount: 500, Charges: []Charge{{Amount: 50, PartyBill: true}}},
	}
	assert.Equal(t, 1350.0, PartyBalance(trips, nil))
	assert.Equal(t, 1000.0, PartyBalance(trips, []float64{350}))
	assert.Equal(t, 0.0, PartyBalance(nil, nil))
}

func TestSupplierAndNet(t *testing.T) {
	assert.Equal(t, 700.0, SupplierBalance([]float64{500, 500}, []float64{300}))
	assert.Equal(t, 150.0, Net([]float64{200, 50}, []float64{100}))
	assert.Equal(t, -100.0, Net(nil, []float64{100}))
}

func TestBillableAndProfit(t *testing.T) {
	trip := Trip{Amount: 10000, Charges: []Charge{{Amount: 500, PartyBill: true}, {Amount: 200}}}
	assert.Equal(t, 10300.0, Billable(trip))
	assert.Equal(t, 2300.0, Profit(trip, []float64{1000, 1000}, 6000))
}

func TestInvoiceStatus(t *testing.T) {
	assert.Equal(t, InvoiceDue, InvoiceStatus(1000, 0))
	assert.Equal(t, InvoicePartiallyPaid, InvoiceStatus(1000, 400))
	assert.Equal(t, InvoicePaid, InvoiceStatus(1000, 1000))
}

func TestFreight(t *testing.T) {
	assert.Equal(t, 25650.0, Freight(1350, 19))
	assert.Equal(t, 3300.3, Freight(1100.1, 3))
	assert.Equal(t, 0.0, Freight(0, 12))
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0.0, Total(nil))
	assert.Equal(t, 0.3, Total([]float64{0.1, 0.2}))
}
