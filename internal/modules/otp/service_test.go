package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyDiscard(t *testing.T) {
	svc := NewService(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "booking:b1")
	require.NoError(t, err)
	assert.Len(t, code, 4)

	peek, err := svc.Peek(ctx, "booking:b1")
	require.NoError(t, err)
	assert.Equal(t, code, peek)

	wrong := "0000"
	if code == wrong {
		wrong = "1111"
	}
	assert.ErrorIs(t, svc.Verify(ctx, "booking:b1", wrong), ErrInvalidCode)
	require.NoError(t, svc.Verify(ctx, "booking:b1", code))

	require.NoError(t, svc.Discard(ctx, "booking:b1"))
	assert.ErrorIs(t, svc.Verify(ctx, "booking:b1", code), ErrNotIssued)
}

func TestMemoryStoreExpiresEntriesIndependently(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "short", "1234", time.Minute))
	require.NoError(t, store.Put(ctx, "long", "5678", time.Hour))

	now = now.Add(2 * time.Minute)
	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	code, ok, err := store.Get(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5678", code)
}
