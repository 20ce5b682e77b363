package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrOTPExpired      = errors.New("otp expired or not requested")
	ErrOTPInvalid      = errors.New("invalid otp")
	ErrTooManyAttempts = errors.New("too many otp attempts")
)

const maxOTPAttempts = 5

// OTPStore keeps bcrypt-hashed one-time codes in Redis, keyed by phone.
type OTPStore struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	length int
}

func NewOTPStore(rdb redis.UniversalClient, ttl time.Duration, length int) *OTPStore {
	if length <= 0 {
		length = 6
	}
	return &OTPStore{rdb: rdb, ttl: ttl, length: length}
}

func codeKey(phone string) string     { return "otp:" + phone }
func attemptsKey(phone string) string { return "otp:attempts:" + phone }

// Issue creates a new code for phone, replacing any pending one.
func (s *OTPStore) Issue(ctx context.Context, phone string) (string, error) {
	code, err := randomDigits(s.length)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, codeKey(phone), hash, s.ttl)
	pipe.Del(ctx, attemptsKey(phone))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code against the pending one. A correct code is consumed;
// after maxOTPAttempts wrong guesses the pending code is discarded.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) error {
	hash, err := s.rdb.Get(ctx, codeKey(phone)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrOTPExpired
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	attempts, err := s.rdb.Incr(ctx, attemptsKey(phone)).Result()
	if err != nil {
		return fmt.Errorf("count otp attempts: %w", err)
	}
	s.rdb.Expire(ctx, attemptsKey(phone), s.ttl)
	if attempts > maxOTPAttempts {
		s.rdb.Del(ctx, codeKey(phone), attemptsKey(phone))
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return ErrOTPInvalid
	}
	s.rdb.Del(ctx, codeKey(phone), attemptsKey(phone))
	return nil
}

func randomDigits(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
