package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats an amount with two decimals and Indian digit grouping
// (12,34,567.50).
func FormatINR(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac := s[:len(s)-3], s[len(s)-3:]
	if len(whole) <= 3 {
		return sign + whole + frac
	}
	head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return sign + strings.Join(groups, ",") + "," + tail + frac
}
