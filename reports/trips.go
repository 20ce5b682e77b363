// Package reports exports ledger views as Excel workbooks.
package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fleetledger/ledger"
	"fleetledger/models"
)

const (
	TripsSheet   = "Trips"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerRow    = 4
	firstDataRow = 5
)

type column struct {
	label string
	width float64
	value func(t *models.TripDetails) interface{}
}

var tripColumns = []column{
	{"Start Date", 12, func(t *models.TripDetails) interface{} { return t.StartDate.Format("2006-01-02") }},
	{"LR", 10, func(t *models.TripDetails) interface{} { return t.LR }},
	{"Truck", 14, func(t *models.TripDetails) interface{} { return t.Truck }},
	{"Party", 20, func(t *models.TripDetails) interface{} { return t.PartyName }},
	{"Driver", 16, func(t *models.TripDetails) interface{} { return t.DriverName }},
	{"Origin", 14, func(t *models.TripDetails) interface{} { return t.Route.Origin }},
	{"Destination", 14, func(t *models.TripDetails) interface{} { return t.Route.Destination }},
	{"Status", 12, func(t *models.TripDetails) interface{} { return statusLabel(t.Status) }},
	{"Amount", 12, func(t *models.TripDetails) interface{} { return t.Amount }},
	{"Charges Billed", 14, func(t *models.TripDetails) interface{} { return t.ChargeToBill }},
	{"Charges Not Billed", 16, func(t *models.TripDetails) interface{} { return t.ChargeNotToBill }},
	{"Received", 12, func(t *models.TripDetails) interface{} { return t.AccountBalance }},
	{"Balance", 12, func(t *models.TripDetails) interface{} { return t.Balance }},
	{"Revenue", 12, func(t *models.TripDetails) interface{} { return t.Revenue }},
	{"Expenses", 12, func(t *models.TripDetails) interface{} { return t.Expenses }},
	{"Truck Hire", 12, func(t *models.TripDetails) interface{} { return t.TruckHireCost }},
	{"Profit", 12, func(t *models.TripDetails) interface{} { return t.Profit }},
}

// first column that holds an amount; everything from here on is totalled
const firstAmountColumn = 9

func statusLabel(status int) string {
	if status < 0 || status >= len(models.TripStatusLabels) {
		return fmt.Sprint(status)
	}
	return models.TripStatusLabels[status]
}

// TripsWorkbook lays out trips with their balances, one row per trip and a
// totals row at the end.
func TripsWorkbook(title string, trips []*models.TripDetails, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", TripsSheet); err != nil {
		f.Close()
		return nil, err
	}
	sheet := TripsSheet

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border("000000"),
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{Border: border("CCCCCC")})
	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
		Border: border("000000"),
	})

	f.SetCellValue(sheet, "A1", title)
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetRowHeight(sheet, 1, 30)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Generated: %s", generated.Format("2006-01-02 15:04")))

	for i, col := range tripColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, cell, col.label)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
		f.SetColWidth(sheet, name, name, col.width)
	}

	totals := make([][]float64, len(tripColumns))
	for r, trip := range trips {
		row := firstDataRow + r
		for i, col := range tripColumns {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			v := col.value(trip)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
			f.SetCellStyle(sheet, cell, cell, dataStyle)
			if amount, ok := v.(float64); ok {
				totals[i] = append(totals[i], amount)
			}
		}
	}

	totalRow := firstDataRow + len(trips)
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	f.SetCellValue(sheet, cell, fmt.Sprintf("Total (%d trips)", len(trips)))
	for i := firstAmountColumn - 1; i < len(tripColumns); i++ {
		cell, _ := excelize.CoordinatesToCellName(i+1, totalRow)
		f.SetCellValue(sheet, cell, ledger.Total(totals[i]))
	}
	last, _ := excelize.CoordinatesToCellName(len(tripColumns), totalRow)
	f.SetCellStyle(sheet, cell, last, totalStyle)

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", firstDataRow),
		ActivePane:  "bottomLeft",
	})
	return f, nil
}

// WriteTrips renders the trips workbook to w.
func WriteTrips(w io.Writer, title string, trips []*models.TripDetails, generated time.Time) error {
	f, err := TripsWorkbook(title, trips, generated)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func border(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}
