package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

const DefaultMaxRetries = 3

// Try runs op, retrying when it fails with a duplicate key error. Inserts that
// generate their business ID inside op get a fresh ID on every attempt.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsDuplicateKeyError)
}

// WithRetries executes op up to maxRetries extra times while isRetryable(err) holds.
func WithRetries(op Operation, maxRetries int, isRetryable func(error) bool) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !isRetryable(err) {
			break
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
