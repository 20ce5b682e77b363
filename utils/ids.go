package utils

import "github.com/google/uuid"

// NewID returns a business ID: a short type prefix followed by a random UUID.
func NewID(prefix string) string {
	return prefix + uuid.NewString()
}
