// Package jobs runs background work on asynq: rendering invoice PDFs and the
// daily scan for expiring documents.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	QueueDefault = "default"

	TypeInvoicePDF         = "invoice:pdf"
	TypeDocumentExpiryScan = "documents:expiry_scan"
)

// InvoicePDFPayload identifies the invoice to render.
type InvoicePDFPayload struct {
	UserID    string `json:"user_id"`
	InvoiceID string `json:"invoice_id"`
}

func NewInvoicePDFTask(userID, invoiceID string) (*asynq.Task, error) {
	data, err := json.Marshal(InvoicePDFPayload{UserID: userID, InvoiceID: invoiceID})
	if err != nil {
		return nil, fmt.Errorf("marshal invoice pdf payload: %w", err)
	}
	return asynq.NewTask(TypeInvoicePDF, data, asynq.MaxRetry(5)), nil
}

// ExpiryScanPayload configures the expiry scan. Zero means the worker default.
type ExpiryScanPayload struct {
	WindowDays int `json:"window_days"`
}

func NewExpiryScanTask(windowDays int) (*asynq.Task, error) {
	data, err := json.Marshal(ExpiryScanPayload{WindowDays: windowDays})
	if err != nil {
		return nil, fmt.Errorf("marshal expiry scan payload: %w", err)
	}
	return asynq.NewTask(TypeDocumentExpiryScan, data), nil
}
