// Package otp issues and verifies short-lived phone verification codes.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

const (
	// CodeLength is the number of digits in a code.
	CodeLength = 6

	// DefaultTTL is how long a code stays valid.
	DefaultTTL = 10 * time.Minute

	// DefaultMaxAttempts is how many wrong guesses a code survives.
	DefaultMaxAttempts = 3
)

var (
	// ErrNotFound is returned when no code is pending for the phone.
	ErrNotFound = errors.New("OTP not found or expired")

	// ErrExpired is returned when the pending code has passed its TTL.
	ErrExpired = errors.New("OTP expired")

	// ErrMismatch is returned when the submitted code is wrong.
	ErrMismatch = errors.New("Invalid OTP")

	// ErrTooManyAttempts is returned when the code was guessed wrong too often.
	ErrTooManyAttempts = errors.New("too many OTP attempts")
)

// Store keeps pending codes keyed by phone number.
type Store interface {
	// Generate issues a fresh code for phone, replacing any pending one.
	Generate(ctx context.Context, phone string) (string, error)

	// Verify consumes the pending code for phone if code matches.
	Verify(ctx context.Context, phone, code string) error
}

// Sender delivers a code to the phone's owner.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// Entry is a pending code.
type Entry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func (e *Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// NewCode returns a uniformly random code in [100000, 999999].
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// NewEntry returns an entry for code valid for ttl from now.
func NewEntry(code string, now time.Time, ttl time.Duration) *Entry {
	return &Entry{Code: code, ExpiresAt: now.Add(ttl)}
}

// Check applies the verification rules to e. It reports whether e must be
// dropped from the store, and increments e.Attempts on a mismatch.
func (e *Entry) Check(code string, now time.Time, maxAttempts int) (drop bool, err error) {
	if e.expired(now) {
		return true, ErrExpired
	}
	if e.Code != code {
		e.Attempts++
		if e.Attempts >= maxAttempts {
			return true, ErrTooManyAttempts
		}
		return false, ErrMismatch
	}
	return true, nil
}
