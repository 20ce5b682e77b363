package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"fleetledger/auth"
	"fleetledger/metrics"
	"fleetledger/models"
	"fleetledger/services"
)

// InvoiceSource loads invoice data and records the rendered PDF.
type InvoiceSource interface {
	PDFData(ctx context.Context, userID, invoiceID string) (models.InvoicePDFData, error)
	SetPDF(ctx context.Context, userID, invoiceID, url string) error
}

// ExpirySource lists documents expiring within a window.
type ExpirySource interface {
	Expiring(ctx context.Context, userID string, days int) ([]*models.DocumentEntry, error)
}

// OwnerLister lists the accounts to scan.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]*models.User, error)
}

// Renderer turns invoice data into a PDF.
type Renderer func(ctx context.Context, templateDir string, data models.InvoicePDFData) ([]byte, error)

// Processor holds the dependencies of the task handlers.
type Processor struct {
	Invoices    InvoiceSource
	Documents   ExpirySource
	Owners      OwnerLister
	Storage     services.ObjectStorage
	Render      Renderer
	SMS         auth.SMSSender
	TemplateDir string
	WindowDays  int
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// HandleInvoicePDF renders an invoice, uploads it and stores its URL.
func (p *Processor) HandleInvoicePDF(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { err = p.Metrics.Track(TypeInvoicePDF).End(err) }()

	var payload InvoicePDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal invoice pdf payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Storage == nil {
		return fmt.Errorf("no object storage configured: %w", asynq.SkipRetry)
	}
	logger := p.Logger.With("user_id", payload.UserID, "invoice_id", payload.InvoiceID)

	data, err := p.Invoices.PDFData(ctx, payload.UserID, payload.InvoiceID)
	if errors.Is(err, services.ErrNotFound) {
		logger.Info("invoice deleted before its pdf was rendered")
		return nil
	}
	if err != nil {
		return err
	}

	pdf, err := p.Render(ctx, p.TemplateDir, data)
	if err != nil {
		logger.Error("invoice render failed", "error", err)
		return err
	}
	key := fmt.Sprintf("%s/invoices/%s.pdf", payload.UserID, payload.InvoiceID)
	url, err := p.Storage.Upload(ctx, key, pdf, "application/pdf")
	if err != nil {
		return err
	}
	if err := p.Invoices.SetPDF(ctx, payload.UserID, payload.InvoiceID, url); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			_ = p.Storage.Delete(ctx, url)
			return nil
		}
		return err
	}
	logger.Info("invoice pdf stored", "url", url, "bytes", len(pdf))
	return nil
}

// HandleExpiryScan notifies every owner about documents that expire within
// the window. A failure for one account does not stop the scan.
func (p *Processor) HandleExpiryScan(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { err = p.Metrics.Track(TypeDocumentExpiryScan).End(err) }()

	var payload ExpiryScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal expiry scan payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	window := payload.WindowDays
	if window <= 0 {
		window = p.WindowDays
	}
	if window <= 0 {
		window = 30
	}

	owners, err := p.Owners.ListOwners(ctx)
	if err != nil {
		return err
	}
	total, failed := 0, 0
	for _, owner := range owners {
		docs, err := p.Documents.Expiring(ctx, owner.UserID, window)
		if err != nil {
			failed++
			p.Logger.Error("expiry scan failed", "user_id", owner.UserID, "error", err)
			continue
		}
		if len(docs) == 0 {
			continue
		}
		total += len(docs)
		if err := p.SMS.Send(ctx, owner.Phone, ExpiryMessage(docs)); err != nil {
			failed++
			p.Logger.Warn("expiry alert not sent", "user_id", owner.UserID, "error", err)
		}
	}
	p.Metrics.ExpiringDocuments(total)
	p.Logger.Info("expiry scan finished", "owners", len(owners), "documents", total, "failed", failed)
	return nil
}

// ExpiryMessage summarises expiring documents in one SMS.
func ExpiryMessage(docs []*models.DocumentEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d document(s) need attention:", len(docs))
	for i, d := range docs {
		if i == 5 {
			fmt.Fprintf(&b, " and %d more", len(docs)-i)
			break
		}
		days := 0
		if d.DaysToExpiry != nil {
			days = *d.DaysToExpiry
		}
		switch {
		case days < 0:
			fmt.Fprintf(&b, " %s %s expired %d day(s) ago;", d.OwnerName, d.Type, -days)
		case days == 0:
			fmt.Fprintf(&b, " %s %s expires today;", d.OwnerName, d.Type)
		default:
			fmt.Fprintf(&b, " %s %s expires in %d day(s);", d.OwnerName, d.Type, days)
		}
	}
	return strings.TrimSuffix(b.String(), ";")
}
