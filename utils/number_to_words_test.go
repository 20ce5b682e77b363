package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberToWords(t *testing.T) {
	cases := map[int]string{
		7:        "Seven",
		42:       "Forty Two",
		100:      "One Hundred",
		1005:     "One Thousand Five",
		250000:   "Two Lakh Fifty Thousand",
		10000000: "One Crore",
	}
	for in, want := range cases {
		assert.Equal(t, want, NumberToWords(in), "input %d", in)
	}
}

func TestNumberToCurrencyWords(t *testing.T) {
	assert.Equal(t, "Ten Thousand Rupees Only", NumberToCurrencyWords(10000))
	assert.Equal(t, "Five Rupees and Fifty Paise Only", NumberToCurrencyWords(5.5))
	assert.Equal(t, "Zero Rupees Only", NumberToCurrencyWords(0))
	assert.Equal(t, "Minus Five Hundred Rupees Only", NumberToCurrencyWords(-500))
}

func TestNewID(t *testing.T) {
	id := NewID("trip")
	assert.True(t, strings.HasPrefix(id, "trip"))
	assert.Len(t, id, len("trip")+36)
	assert.NotEqual(t, id, NewID("trip"))
}
