package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetledger/ledger"
	"fleetledger/models"
	"fleetledger/repository"
)

func TestCreateTripDefaults(t *testing.T) {
	f := newFixture(t, Options{})

	trip, err := f.svc.Trips.Create(f.ctx, f.userID, &models.Trip{
		PartyID:    f.party.PartyID,
		Truck:      f.truck.TruckNo,
		Route:      models.Route{Origin: "Pune", Destination: "Nagpur"},
		PerUnit:    1350,
		TotalUnits: 19,
	})
	require.NoError(t, err)
	assert.Contains(t, trip.TripID, "trip")
	assert.Equal(t, 25650.0, trip.Amount)
	assert.Equal(t, f.driver.DriverID, trip.DriverID, "driver defaults to the truck's driver")
	assert.NotNil(t, trip.Dates[models.TripCreated])
	assert.Equal(t, int64(0), trip.Version)
}

func TestCreateTripUnknownRefs(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.svc.Trips.Create(f.ctx, f.userID, &models.Trip{PartyID: "nope", Truck: f.truck.TruckNo})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Trips.Create(f.ctx, f.userID, &models.Trip{PartyID: f.party.PartyID, Truck: "XX00"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateTripMarketTruckTakesSupplier(t *testing.T) {
	f := newFixture(t, Options{})
	sup, err := f.svc.Suppliers.Create(f.ctx, f.userID, &models.Supplier{Name: "Market Wheels"})
	require.NoError(t, err)
	_, err = f.svc.Trucks.Create(f.ctx, f.userID, &models.Truck{TruckNo: "KA01ZZ9999", OwnershipType: models.OwnershipMarket, SupplierID: sup.SupplierID})
	require.NoError(t, err)

	trip, err := f.svc.Trips.Create(f.ctx, f.userID, &models.Trip{PartyID: f.party.PartyID, Truck: "KA01ZZ9999", Amount: 5000, TruckHireCost: 4000})
	require.NoError(t, err)
	assert.Equal(t, sup.SupplierID, trip.SupplierID)
}

func TestTripBalanceExample(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 10000)

	_, err := f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Loading", Amount: 500, PartyBill: true})
	require.NoError(t, err)
	_, err = f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Toll", Amount: 200})
	require.NoError(t, err)
	_, _, err = f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 300, PaymentType: "Cash"})
	require.NoError(t, err)

	details, err := f.svc.Trips.Get(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, details.Balance)
	assert.Equal(t, 500.0, details.ChargeToBill)
	assert.Equal(t, 200.0, details.ChargeNotToBill)
	assert.Equal(t, 300.0, details.AccountBalance)
	assert.Equal(t, 10300.0, details.Revenue)
	assert.Len(t, details.Charges, 2)
}

func TestRejectedAccountLeavesTripUnchanged(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 10000)
	_, err := f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Loading", Amount: 500, PartyBill: true})
	require.NoError(t, err)
	_, err = f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Toll", Amount: 200})
	require.NoError(t, err)
	_, _, err = f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 300})
	require.NoError(t, err)

	before, err := f.stores.Trips.FindOne(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	paymentsBefore, err := f.stores.PartyPayments.Count(f.ctx, f.userID, nil)
	require.NoError(t, err)

	_, _, err = f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 10500})
	require.ErrorIs(t, err, ledger.ErrNegativeBalance)

	after, err := f.stores.Trips.FindOne(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	paymentsAfter, err := f.stores.PartyPayments.Count(f.ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Equal(t, paymentsBefore, paymentsAfter)
}

func TestDriverPaymentWithoutDriverLeavesTripUnchanged(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 5000)
	_, _, err := f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 300})
	require.NoError(t, err)
	require.NoError(t, f.stores.Drivers.Delete(f.ctx, f.userID, f.driver.DriverID))

	before, err := f.stores.Trips.FindOne(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	require.Len(t, before.Accounts, 1)

	_, _, err = f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 1000, ReceivedByDriver: true})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Trips.UpdateAccount(f.ctx, f.userID, trip.TripID, before.Accounts[0].AccountID, models.TripAccount{Amount: 300, ReceivedByDriver: true})
	assert.ErrorIs(t, err, ErrValidation)

	after, err := f.stores.Trips.FindOne(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	payments, err := f.stores.PartyPayments.Find(f.ctx, f.userID, nil)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.False(t, payments[0].ReceivedByDriver)

	truck, err := f.svc.Trucks.Create(f.ctx, f.userID, &models.Truck{TruckNo: "MH14CD5678"})
	require.NoError(t, err)
	_, err = f.svc.Trips.Create(f.ctx, f.userID, &models.Trip{
		PartyID:  f.party.PartyID,
		Truck:    truck.TruckNo,
		Route:    models.Route{Origin: "Pune", Destination: "Nashik"},
		Amount:   2000,
		Accounts: []models.TripAccount{{Amount: 500, ReceivedByDriver: true}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Trips.Create(f.ctx, f.userID, &models.Trip{
		PartyID:  f.party.PartyID,
		Truck:    truck.TruckNo,
		Route:    models.Route{Origin: "Pune", Destination: "Nashik"},
		Amount:   2000,
		Accounts: []models.TripAccount{{Amount: -500}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	n, err := f.stores.Trips.Count(f.ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRejectedChargeAndAmountChange(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 1000)
	_, _, err := f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 800})
	require.NoError(t, err)

	_, err = f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Toll", Amount: 300})
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)
	n, err := f.stores.TripCharges.Count(f.ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	amount := 700.0
	_, err = f.svc.Trips.Update(f.ctx, f.userID, trip.TripID, TripUpdate{Amount: &amount})
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)

	amount = 900
	updated, err := f.svc.Trips.Update(f.ctx, f.userID, trip.TripID, TripUpdate{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 900.0, updated.Amount)
}

func TestUpdateAndDeleteCharge(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 1000)
	charge, err := f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Toll", Amount: 100})
	require.NoError(t, err)

	_, err = f.svc.Trips.UpdateCharge(f.ctx, f.userID, trip.TripID, charge.ChargeID, models.TripCharge{ExpenseType: "Toll", Amount: 1200})
	assert.ErrorIs(t, err, ledger.ErrNegativeBalance)

	updated, err := f.svc.Trips.UpdateCharge(f.ctx, f.userID, trip.TripID, charge.ChargeID, models.TripCharge{ExpenseType: "Toll", Amount: 1200, PartyBill: true})
	require.NoError(t, err)
	assert.True(t, updated.PartyBill)

	details, err := f.svc.Trips.Get(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, 2200.0, details.Balance)

	require.NoError(t, f.svc.Trips.DeleteCharge(f.ctx, f.userID, trip.TripID, charge.ChargeID))
	err = f.svc.Trips.DeleteCharge(f.ctx, f.userID, trip.TripID, charge.ChargeID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountMirrors(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 5000)

	_, acc, err := f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 1000, PaymentType: "Cash", ReceivedByDriver: true})
	require.NoError(t, err)

	payments, err := f.stores.PartyPayments.Find(f.ctx, f.userID, repository.Filter{"accountId": acc.AccountID})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, f.party.PartyID, payments[0].PartyID)
	assert.Equal(t, f.driver.DriverID, payments[0].DriverID)

	driver, err := f.svc.Drivers.Get(f.ctx, f.userID, f.driver.DriverID)
	require.NoError(t, err)
	require.Len(t, driver.Accounts, 1)
	assert.Equal(t, 1000.0, driver.Accounts[0].Got)
	assert.Equal(t, 1000.0, driver.Balance)

	_, err = f.svc.Trips.UpdateAccount(f.ctx, f.userID, trip.TripID, acc.AccountID, models.TripAccount{Amount: 1500, PaymentType: "UPI"})
	require.NoError(t, err)
	driver, err = f.svc.Drivers.Get(f.ctx, f.userID, f.driver.DriverID)
	require.NoError(t, err)
	assert.Empty(t, driver.Accounts, "no longer received by the driver")
	payments, err = f.stores.PartyPayments.Find(f.ctx, f.userID, repository.Filter{"accountId": acc.AccountID})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 1500.0, payments[0].Amount)

	_, err = f.svc.Trips.DeleteAccount(f.ctx, f.userID, trip.TripID, acc.AccountID)
	require.NoError(t, err)
	n, err := f.stores.PartyPayments.Count(f.ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStaleSaveConflicts(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 5000)

	stale, err := f.stores.Trips.FindOne(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)

	_, err = f.svc.Trips.UpdateStatus(f.ctx, f.userID, trip.TripID, models.TripLoading, time.Time{})
	require.NoError(t, err)

	stale.Amount = 1
	err = f.svc.Trips.save(f.ctx, stale, stale.Version)
	assert.ErrorIs(t, err, ErrConflict)

	current, err := f.stores.Trips.FindOne(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, current.Amount)
	assert.Equal(t, int64(1), current.Version)
}

func TestUpdateStatusAnyOrder(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 5000)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	updated, err := f.svc.Trips.UpdateStatus(f.ctx, f.userID, trip.TripID, models.TripDelivered, at)
	require.NoError(t, err)
	assert.Equal(t, models.TripDelivered, updated.Status)
	require.NotNil(t, updated.Dates[models.TripDelivered])
	assert.True(t, at.Equal(*updated.Dates[models.TripDelivered]))

	updated, err = f.svc.Trips.UpdateStatus(f.ctx, f.userID, trip.TripID, models.TripLoading, at)
	require.NoError(t, err)
	assert.Equal(t, models.TripLoading, updated.Status)

	_, err = f.svc.Trips.UpdateStatus(f.ctx, f.userID, trip.TripID, 5, at)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteTripCascades(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 5000)
	_, err := f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Toll", Amount: 100})
	require.NoError(t, err)
	_, _, err = f.svc.Trips.AddAccount(f.ctx, f.userID, trip.TripID, models.TripAccount{Amount: 1000, ReceivedByDriver: true})
	require.NoError(t, err)
	_, err = f.svc.Expenses.Create(f.ctx, f.userID, &models.Expense{TripID: trip.TripID, ExpenseType: "Diesel", Amount: 2000})
	require.NoError(t, err)

	require.NoError(t, f.svc.Trips.Delete(f.ctx, f.userID, trip.TripID))

	for name, count := range map[string]func() (int64, error){
		"charges":  func() (int64, error) { return f.stores.TripCharges.Count(f.ctx, f.userID, nil) },
		"payments": func() (int64, error) { return f.stores.PartyPayments.Count(f.ctx, f.userID, nil) },
		"expenses": func() (int64, error) { return f.stores.Expenses.Count(f.ctx, f.userID, nil) },
		"trips":    func() (int64, error) { return f.stores.Trips.Count(f.ctx, f.userID, nil) },
	} {
		n, err := count()
		require.NoError(t, err)
		assert.Zero(t, n, name)
	}
	driver, err := f.svc.Drivers.Get(f.ctx, f.userID, f.driver.DriverID)
	require.NoError(t, err)
	assert.Empty(t, driver.Accounts)

	assert.ErrorIs(t, f.svc.Trips.Delete(f.ctx, f.userID, trip.TripID), ErrNotFound)
}

func TestTripsAreScopedToOwner(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 5000)

	_, err := f.svc.Trips.Get(f.ctx, "someone-else", trip.TripID)
	assert.ErrorIs(t, err, ErrNotFound)
	list, err := f.svc.Trips.List(f.ctx, "someone-else", TripFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTripProfit(t *testing.T) {
	f := newFixture(t, Options{})
	trip := f.trip(t, 10000)
	_, err := f.svc.Trips.AddCharge(f.ctx, f.userID, trip.TripID, models.TripCharge{ExpenseType: "Loading", Amount: 500, PartyBill: true})
	require.NoError(t, err)
	_, err = f.svc.Expenses.Create(f.ctx, f.userID, &models.Expense{TripID: trip.TripID, ExpenseType: "Diesel", Amount: 3000})
	require.NoError(t, err)

	details, err := f.svc.Trips.Get(f.ctx, f.userID, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, details.Expenses)
	assert.Equal(t, 7500.0, details.Profit)
	assert.Equal(t, "Acme Steel", details.PartyName)
	assert.Equal(t, "Ramesh", details.DriverName)
}
