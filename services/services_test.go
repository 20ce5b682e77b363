package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fleetledger/models"
	"fleetledger/repository"
)

type fixture struct {
	ctx    context.Context
	stores *repository.Stores
	svc    *Services
	userID string
	party  *models.Party
	driver *models.Driver
	truck  *models.Truck
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	svc := New(stores, opts, discardLogger())
	f := &fixture{ctx: ctx, stores: stores, svc: svc, userID: "user1"}

	var err error
	f.party, err = svc.Parties.Create(ctx, f.userID, &models.Party{Name: "Acme Steel"})
	require.NoError(t, err)
	f.driver, err = svc.Drivers.Create(ctx, f.userID, &models.Driver{Name: "Ramesh"})
	require.NoError(t, err)
	f.truck, err = svc.Trucks.Create(ctx, f.userID, &models.Truck{TruckNo: "MH12AB1234", DriverID: f.driver.DriverID})
	require.NoError(t, err)
	return f
}

func (f *fixture) trip(t *testing.T, amount float64) *models.Trip {
	t.Helper()
	trip, err := f.svc.Trips.Create(f.ctx, f.userID, &models.Trip{
		PartyID: f.party.PartyID,
		Truck:   f.truck.TruckNo,
		Route:   models.Route{Origin: "Pune", Destination: "Nagpur"},
		Amount:  amount,
	})
	require.NoError(t, err)
	return trip
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, fileURL string) error {
	return m.Called(ctx, fileURL).Error(0)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueInvoicePDF(ctx context.Context, userID, invoiceID string) error {
	return m.Called(ctx, userID, invoiceID).Error(0)
}
