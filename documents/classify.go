// Package documents guesses the type and validity date of uploaded documents
// from their filename and any text extracted from them.
package documents

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
)

// TextExtractor pulls plain text out of an uploaded file (OCR or PDF text).
type TextExtractor interface {
	ExtractText(ctx context.Context, contentType string, data []byte) (string, error)
}

// Document types recognised by Classify.
const (
	TypeRC        = "RC"
	TypeInsurance = "Insurance"
	TypePermit    = "Permit"
	TypeFitness   = "Fitness"
	TypePollution = "PUC"
	TypeTax       = "Tax"
	TypeLicense   = "License"
	TypeAadhar    = "Aadhar"
	TypePAN       = "PAN"
	TypeGST       = "GST"
	TypePOD       = "POD"
	TypeOther     = "Other"
)

var typeKeywords = []struct {
	docType  string
	keywords []string
}{
	{TypeInsurance, []string{"insurance", "policy no", "policy number", "insured"}},
	{TypePollution, []string{"puc", "pollution under control", "pollution"}},
	{TypeFitness, []string{"fitness", "certificate of fitness"}},
	{TypePermit, []string{"permit", "national permit"}},
	{TypeTax, []string{"road tax", "tax receipt", "motor vehicle tax"}},
	{TypeRC, []string{"registration certificate", "rc book", "rc_", "rc-", "regn. no", "chassis"}},
	{TypeLicense, []string{"driving licence", "driving license", "licence", "license", "dl no"}},
	{TypeAadhar, []string{"aadhaar", "aadhar", "uidai"}},
	{TypePAN, []string{"permanent account number", "income tax department", "pan card", "pan_"}},
	{TypeGST, []string{"gstin", "goods and services tax", "gst certificate"}},
	{TypePOD, []string{"proof of delivery", "pod", "delivery receipt"}},
}

// Types documents are expected to expire.
var expiring = map[string]bool{
	TypeInsurance: true, TypePollution: true, TypeFitness: true, TypePermit: true,
	TypeTax: true, TypeLicense: true, TypeRC: true,
}

// Classify returns the best guess for a document type and, for documents that
// expire, its validity date. Both are best effort; TypeOther and nil are
// returned when nothing matches.
func Classify(filename, text string) (string, *time.Time) {
	docType := classifyType(strings.ToLower(filename + " " + text))
	if !expiring[docType] {
		return docType, nil
	}
	return docType, ValidityDate(text)
}

func classifyType(haystack string) string {
	for _, tk := range typeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(haystack, kw) {
				return tk.docType
			}
		}
	}
	return TypeOther
}

var (
	numericDate = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	isoDate     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDate   = regexp.MustCompile(`(?i)\b(\d{1,2})[ -]([a-z]{3})[a-z]*[ ,-]+(\d{4})\b`)
	validityCue = regexp.MustCompile(`(?i)(valid\s*(till|upto|up to|until|to)|expir\w*|to\s*date|due\s*date)`)
)

type found struct {
	at  int
	val time.Time
}

func findDates(text string) []found {
	var out []found
	for _, m := range numericDate.FindAllStringSubmatchIndex(text, -1) {
		s := text[m[0]:m[1]]
		sep := s[len(text[m[2]:m[3]])]
		layout := "2" + string(sep) + "1" + string(sep) + "2006"
		if t, err := time.Parse(layout, s); err == nil {
			out = append(out, found{m[0], t})
		}
	}
	for _, m := range isoDate.FindAllStringIndex(text, -1) {
		if t, err := time.Parse("2006-01-02", text[m[0]:m[1]]); err == nil {
			out = append(out, found{m[0], t})
		}
	}
	for _, m := range monthDate.FindAllStringSubmatchIndex(text, -1) {
		day, mon, year := text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]
		mon = strings.ToUpper(mon[:1]) + strings.ToLower(mon[1:])
		if t, err := time.Parse("2 Jan 2006", day+" "+mon+" "+year); err == nil {
			out = append(out, found{m[0], t})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// ValidityDate picks the expiry date out of free text: the first date after a
// "valid till"/"expiry" cue, otherwise the latest date mentioned.
func ValidityDate(text string) *time.Time {
	dates := findDates(text)
	if len(dates) == 0 {
		return nil
	}
	for _, cue := range validityCue.FindAllStringIndex(text, -1) {
		for _, d := range dates {
			if d.at >= cue[1] {
				t := d.val
				return &t
			}
		}
	}
	latest := dates[0].val
	for _, d := range dates[1:] {
		if d.val.After(latest) {
			latest = d.val
		}
	}
	return &latest
}

// DaysToExpiry returns whole days from now until validity, negative once expired.
func DaysToExpiry(validity *time.Time, now time.Time) *int {
	if validity == nil {
		return nil
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	vy, vm, vd := validity.Date()
	until := time.Date(vy, vm, vd, 0, 0, 0, 0, time.UTC)
	days := int(until.Sub(today).Hours() / 24)
	return &days
}
