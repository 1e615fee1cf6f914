package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, workers int) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost, workers)
	require.NoError(t, err)
	return h
}

func TestNewHasher_CostBounds(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost-1, 1)
	assert.Error(t, err)
	_, err = NewHasher(bcrypt.MaxCost+1, 1)
	assert.Error(t, err)

	h, err := NewHasher(12, 0)
	require.NoError(t, err)
	assert.Positive(t, cap(h.slots))
}

func TestHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	for _, p := range []string{"password123", "", "ünïcödé pass", "a much longer passphrase with spaces"} {
		hash, err := h.Hash(ctx, p)
		require.NoError(t, err)
		assert.NotEqual(t, p, hash)

		ok, err := h.Verify(ctx, p, hash)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", p)
	}
}

func TestHasher_Mismatch(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "correct horse")
	require.NoError(t, err)

	ok, err := h.Verify(ctx, "battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_Salted(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	a, err := h.Hash(ctx, "same")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	for _, hash := range []string{a, b} {
		ok, err := h.Verify(ctx, "same", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestHasher_MalformedHash(t *testing.T) {
	h := newTestHasher(t, 1)
	for _, bad := range []string{"", "not-a-hash", "$2a$10$short"} {
		ok, err := h.Verify(context.Background(), "pw", bad)
		assert.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestHasher_WaitRespectsContext(t *testing.T) {
	h := newTestHasher(t, 1)
	h.slots <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = h.Verify(ctx, "pw", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHasher_Concurrent(t *testing.T) {
	h := newTestHasher(t, 2)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := h.Hash(context.Background(), "pw")
			if err != nil {
				errs <- err
				return
			}
			if ok, _ := h.Verify(context.Background(), "pw", hash); !ok {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Zero(t, len(h.slots))
}
