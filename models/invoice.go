package models

import "time"

// InvoiceItem is the per-trip line of an invoice.
type InvoiceItem struct {
	TripID      string    `json:"trip_id" bson:"trip_id"`
	Truck       string    `json:"truck" bson:"truck"`
	Origin      string    `json:"origin" bson:"origin"`
	Destination string    `json:"destination" bson:"destination"`
	LR          string    `json:"lr" bson:"lr"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	Amount      float64   `json:"amount" bson:"amount"`
	Charges     float64   `json:"charges" bson:"charges"`
	Advance     float64   `json:"advance" bson:"advance"`
	Balance     float64   `json:"balance" bson:"balance"`
}

type Invoice struct {
	InvoiceID     string        `json:"invoice_id" bson:"invoiceId"`
	UserID        string        `json:"user_id" bson:"userId"`
	InvoiceNo     string        `json:"invoiceNo" bson:"invoiceNo"`
	PartyID       string        `json:"party_id" bson:"partyId"`
	PartyName     string        `json:"partyName" bson:"partyName"`
	Trips         []string      `json:"trips" bson:"trips"`
	Items         []InvoiceItem `json:"items" bson:"items"`
	Date          time.Time     `json:"date" bson:"date"`
	DueDate       time.Time     `json:"dueDate" bson:"dueDate"`
	Total         float64       `json:"total" bson:"total"`
	Advance       float64       `json:"advance" bson:"advance"`
	Balance       float64       `json:"balance" bson:"balance"`
	InvoiceStatus string        `json:"invoiceStatus" bson:"invoiceStatus"`
	PDFURL        string        `json:"pdfUrl,omitempty" bson:"pdfUrl,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
}

// InvoicePDFData feeds the invoice HTML template.
type InvoicePDFData struct {
	Company    *User
	Invoice    *Invoice
	Party      *Party
	Date       string
	DueDate    string
	TotalWords string
}
