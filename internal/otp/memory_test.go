package otp

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(10*time.Minute, 3)
	s.now = clock.Now
	return s, clock
}

func TestNewCode_SixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestMemoryStore_VerifySucceedsOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	code, err := s.Generate(ctx, "9800000000")
	require.NoError(t, err)

	require.NoError(t, s.Verify(ctx, "9800000000", code))
	assert.ErrorIs(t, s.Verify(ctx, "9800000000", code), ErrNotFound, "code is single use")
}

func TestMemoryStore_UnknownPhone(t *testing.T) {
	s, _ := newTestStore()
	assert.ErrorIs(t, s.Verify(context.Background(), "9800000000", "123456"), ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore()

	code, err := s.Generate(ctx, "9800000000")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	require.NoError(t, s.Verify(ctx, "9800000000", code), "still valid at exactly the TTL")

	code, err = s.Generate(ctx, "9800000000")
	require.NoError(t, err)
	clock.Advance(10*time.Minute + time.Second)

	assert.ErrorIs(t, s.Verify(ctx, "9800000000", code), ErrExpired)
	assert.ErrorIs(t, s.Verify(ctx, "9800000000", code), ErrNotFound, "expired entry is removed")
}

func TestMemoryStore_MismatchThenLockout(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	code, err := s.Generate(ctx, "9800000000")
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	assert.ErrorIs(t, s.Verify(ctx, "9800000000", wrong), ErrMismatch)
	assert.ErrorIs(t, s.Verify(ctx, "9800000000", wrong), ErrMismatch)
	assert.ErrorIs(t, s.Verify(ctx, "9800000000", wrong), ErrTooManyAttempts)
	assert.ErrorIs(t, s.Verify(ctx, "9800000000", code), ErrNotFound)
}

func TestMemoryStore_RegenerateReplacesCode(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	first, err := s.Generate(ctx, "9800000000")
	require.NoError(t, err)
	second, err := s.Generate(ctx, "9800000000")
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, s.Verify(ctx, "9800000000", first), ErrMismatch)
	}
	require.NoError(t, s.Verify(ctx, "9800000000", second))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore()

	_, err := s.Generate(ctx, "9800000001")
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)
	_, err = s.Generate(ctx, "9800000002")
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_SweeperStopsWithContext(t *testing.T) {
	s, clock := newTestStore()
	_, err := s.Generate(context.Background(), "9800000000")
	require.NoError(t, err)
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	s.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := "98000000" + strconv.Itoa(10+i)
			code, err := s.Generate(ctx, phone)
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			if err := s.Verify(ctx, phone, code); err != nil {
				t.Errorf("verify: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
}
