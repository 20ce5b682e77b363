package utils

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"fleetledger/models"
)

const invoiceTemplate = "invoice_template.html"

// NewInvoicePDFData formats an invoice for the template.
func NewInvoicePDFData(company *models.User, party *models.Party, inv *models.Invoice) models.InvoicePDFData {
	data := models.InvoicePDFData{
		Company:    company,
		Invoice:    inv,
		Party:      party,
		Date:       "-",
		DueDate:    "-",
		TotalWords: NumberToCurrencyWords(inv.Balance),
	}
	if !inv.Date.IsZero() {
		data.Date = inv.Date.Format("02-Jan-2006")
	}
	if !inv.DueDate.IsZero() {
		data.DueDate = inv.DueDate.Format("02-Jan-2006")
	}
	return data
}

// RenderInvoiceHTML executes the invoice template from templateDir.
func RenderInvoiceHTML(templateDir string, data models.InvoicePDFData) ([]byte, error) {
	tmpl, err := template.New(invoiceTemplate).Funcs(template.FuncMap{
		"money": func(v float64) string { return FormatINR(v) },
		"date":  func(t time.Time) string { return t.Format("02-Jan-2006") },
		"inc":   func(i int) int { return i + 1 },
	}).ParseFiles(filepath.Join(templateDir, invoiceTemplate))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateInvoicePDF renders the invoice HTML and prints it to an A4 PDF with headless Chrome.
func GenerateInvoicePDF(ctx context.Context, templateDir string, data models.InvoicePDFData) ([]byte, error) {
	html, err := RenderInvoiceHTML(templateDir, data)
	if err != nil {
		return nil, err
	}

	tmpHTML := filepath.Join(os.TempDir(), "invoice_"+data.Invoice.InvoiceID+"_"+time.Now().Format("20060102150405")+".html")
	if err := os.WriteFile(tmpHTML, html, 0644); err != nil {
		return nil, err
	}
	defer os.Remove(tmpHTML)

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuf []byte
	err = chromedp.Run(cctx,
		chromedp.Navigate("file://"+tmpHTML),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).  // A4 width
				WithPaperHeight(11.7). // A4 height
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
