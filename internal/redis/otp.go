package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"chovha/internal/otp"
)

const otpKeyPrefix = "otp:"

// OTPStore keeps pending codes in Redis so they survive restarts and are
// shared between replicas. Expiry is left to the key TTL.
type OTPStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

// NewOTPStore creates a new OTPStore. Zero values use the otp package defaults.
func NewOTPStore(client *redis.Client, ttl time.Duration, maxAttempts int) *OTPStore {
	if ttl <= 0 {
		ttl = otp.DefaultTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = otp.DefaultMaxAttempts
	}
	return &OTPStore{client: client, ttl: ttl, maxAttempts: maxAttempts}
}

// Generate issues a fresh code for phone.
func (s *OTPStore) Generate(ctx context.Context, phone string) (string, error) {
	code, err := otp.NewCode()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(otp.NewEntry(code, time.Now(), s.ttl))
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, otpKeyPrefix+phone, data, s.ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes the pending code for phone if code matches. The read and
// the write back are done under WATCH so concurrent guesses are counted.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) error {
	key := otpKeyPrefix + phone
	var result error

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			result = otp.ErrNotFound
			return nil
		}
		if err != nil {
			return err
		}

		var e otp.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}

		drop, checkErr := e.Check(code, time.Now(), s.maxAttempts)
		result = checkErr

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if drop {
				pipe.Del(ctx, key)
				return nil
			}
			updated, err := json.Marshal(&e)
			if err != nil {
				return err
			}
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return err
		}
		return result
	}
	return redis.TxFailedErr
}
