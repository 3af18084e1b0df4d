package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/internal/apperr"
	"github.com/m3rciful/kinobot/internal/testutil"
	"github.com/m3rciful/kinobot/internal/users"
)

func TestRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := users.NewRegistry(testutil.NewDB(t))

	require.NoError(t, r.Register(ctx, 1))
	first, err := r.Get(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, r.Register(ctx, 1))
	second, err := r.Get(ctx, 1)
	require.NoError(t, err)

	assert.True(t, first.JoinedAt.Equal(second.JoinedAt))
	assert.Equal(t, users.FallbackLocale, second.Locale)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLocaleDefaultsAndUpdates(t *testing.T) {
	ctx := context.Background()
	r := users.NewRegistry(testutil.NewDB(t))

	assert.Equal(t, "uz", r.Locale(ctx, 99), "unknown user")

	require.NoError(t, r.Register(ctx, 5))
	require.NoError(t, r.SetLocale(ctx, 5, " RU "))
	assert.Equal(t, "ru", r.Locale(ctx, 5))

	// SetLocale also creates unknown users.
	require.NoError(t, r.SetLocale(ctx, 6, "en"))
	assert.Equal(t, "en", r.Locale(ctx, 6))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGetMissing(t *testing.T) {
	_, err := users.NewRegistry(testutil.NewDB(t)).Get(context.Background(), 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAllIDsIsSnapshot(t *testing.T) {
	ctx := context.Background()
	r := users.NewRegistry(testutil.NewDB(t))
	for _, id := range []int64{30, 10, 20} {
		require.NoError(t, r.Register(ctx, id))
	}

	var got []int64
	for id, err := range r.AllIDs(ctx) {
		require.NoError(t, err)
		got = append(got, id)
		if id == 10 {
			require.NoError(t, r.Register(ctx, 40))
		}
	}
	assert.Equal(t, []int64{10, 20, 30}, got)
}

func TestAllIDsStopsEarly(t *testing.T) {
	ctx := context.Background()
	r := users.NewRegistry(testutil.NewDB(t))
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, r.Register(ctx, id))
	}
	var got []int64
	for id := range r.AllIDs(ctx) {
		got = append(got, id)
		break
	}
	assert.Equal(t, []int64{1}, got)
}
