package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fleetledger/metrics"
	"fleetledger/models"
	"fleetledger/services"
)

type mockInvoices struct {
	mock.Mock
}

func (m *mockInvoices) PDFData(ctx context.Context, userID, invoiceID string) (models.InvoicePDFData, error) {
	args := m.Called(ctx, userID, invoiceID)
	return args.Get(0).(models.InvoicePDFData), args.Error(1)
}

func (m *mockInvoices) SetPDF(ctx context.Context, userID, invoiceID, url string) error {
	return m.Called(ctx, userID, invoiceID, url).Error(0)
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

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, f.err
}

type staticOwners []*models.User

func (s staticOwners) ListOwners(ctx context.Context) ([]*models.User, error) { return s, nil }

type docsByOwner map[string][]*models.DocumentEntry

func (d docsByOwner) Expiring(ctx context.Context, userID string, days int) ([]*models.DocumentEntry, error) {
	if userID == "broken" {
		return nil, errors.New("db down")
	}
	return d[userID], nil
}

type recordingSMS map[string]string

func (r recordingSMS) Send(ctx context.Context, phone, msg string) error {
	r[phone] = msg
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func invoiceTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewInvoicePDFTask("user1", "inv1")
	require.NoError(t, err)
	return task
}

func TestHandleInvoicePDF(t *testing.T) {
	invoices := &mockInvoices{}
	store := &mockStorage{}
	data := models.InvoicePDFData{Invoice: &models.Invoice{InvoiceID: "inv1"}}
	var rendered models.InvoicePDFData
	p := &Processor{
		Invoices:    invoices,
		Storage:     store,
		TemplateDir: "templates",
		Render: func(ctx context.Context, dir string, d models.InvoicePDFData) ([]byte, error) {
			assert.Equal(t, "templates", dir)
			rendered = d
			return []byte("%PDF-1.4"), nil
		},
		Metrics: metrics.NewMetrics(),
		Logger:  quietLogger(),
	}

	invoices.On("PDFData", mock.Anything, "user1", "inv1").Return(data, nil)
	store.On("Upload", mock.Anything, "user1/invoices/inv1.pdf", []byte("%PDF-1.4"), "application/pdf").Return("https://files.example.com/inv1.pdf", nil)
	invoices.On("SetPDF", mock.Anything, "user1", "inv1", "https://files.example.com/inv1.pdf").Return(nil)

	require.NoError(t, p.HandleInvoicePDF(context.Background(), invoiceTask(t)))
	assert.Equal(t, data, rendered)
	invoices.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestHandleInvoicePDFSkipsDeletedInvoice(t *testing.T) {
	invoices := &mockInvoices{}
	p := &Processor{
		Invoices: invoices,
		Storage:  &mockStorage{},
		Render: func(ctx context.Context, dir string, d models.InvoicePDFData) ([]byte, error) {
			t.Fatal("render must not run")
			return nil, nil
		},
		Logger: quietLogger(),
	}
	invoices.On("PDFData", mock.Anything, "user1", "inv1").Return(models.InvoicePDFData{}, services.ErrNotFound)

	assert.NoError(t, p.HandleInvoicePDF(context.Background(), invoiceTask(t)))
}

func TestHandleInvoicePDFBadPayload(t *testing.T) {
	p := &Processor{Storage: &mockStorage{}, Logger: quietLogger()}
	err := p.HandleInvoicePDF(context.Background(), asynq.NewTask(TypeInvoicePDF, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	p.Storage = nil
	err = p.HandleInvoicePDF(context.Background(), invoiceTask(t))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestClientEnqueueInvoicePDF(t *testing.T) {
	fake := &fakeEnqueuer{}
	c := &Client{client: fake}

	require.NoError(t, c.EnqueueInvoicePDF(context.Background(), "user1", "inv1"))
	require.Len(t, fake.tasks, 1)
	assert.Equal(t, TypeInvoicePDF, fake.tasks[0].Type())
	var payload InvoicePDFPayload
	require.NoError(t, json.Unmarshal(fake.tasks[0].Payload(), &payload))
	assert.Equal(t, InvoicePDFPayload{UserID: "user1", InvoiceID: "inv1"}, payload)

	fake.err = asynq.ErrDuplicateTask
	assert.NoError(t, c.EnqueueInvoicePDF(context.Background(), "user1", "inv1"))

	fake.err = errors.New("redis down")
	assert.Error(t, c.EnqueueInvoicePDF(context.Background(), "user1", "inv1"))
	assert.NoError(t, c.Close())
}

func TestHandleExpiryScan(t *testing.T) {
	in3 := 3
	sms := recordingSMS{}
	p := &Processor{
		Owners: staticOwners{
			{UserID: "u1", Phone: "9876543210"},
			{UserID: "u2", Phone: "9123456780"},
			{UserID: "broken", Phone: "9000000000"},
		},
		Documents: docsByOwner{
			"u1": {{Document: models.Document{Type: "Insurance"}, OwnerName: "MH12AB1234", DaysToExpiry: &in3}},
		},
		SMS:        sms,
		WindowDays: 30,
		Logger:     quietLogger(),
	}
	task, err := NewExpiryScanTask(0)
	require.NoError(t, err)

	require.NoError(t, p.HandleExpiryScan(context.Background(), task))
	assert.Equal(t, recordingSMS{"9876543210": "1 document(s) need attention: MH12AB1234 Insurance expires in 3 day(s)"}, sms)
}

func TestExpiryMessage(t *testing.T) {
	expired, today := -2, 0
	msg := ExpiryMessage([]*models.DocumentEntry{
		{Document: models.Document{Type: "PUC"}, OwnerName: "GJ05XY0001", DaysToExpiry: &expired},
		{Document: models.Document{Type: "License"}, OwnerName: "Ramesh", DaysToExpiry: &today},
	})
	assert.Equal(t, "2 document(s) need attention: GJ05XY0001 PUC expired 2 day(s) ago; Ramesh License expires today", msg)

	many := make([]*models.DocumentEntry, 7)
	for i := range many {
		many[i] = &models.DocumentEntry{Document: models.Document{Type: "Permit"}, OwnerName: "T", DaysToExpiry: &today}
	}
	assert.Contains(t, ExpiryMessage(many), "and 2 more")
}
