package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/arenaforge/gameapi/auth"
	"github.com/arenaforge/gameapi/model"
	"github.com/arenaforge/gameapi/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, "alicewood", "  AliceWood@Example.COM ", goodPassword)
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alicewood@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.Zero(t, u.Coins)
	assert.Zero(t, u.Crystals)
	assert.NotEqual(t, goodPassword, u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"))
}

func TestRegister_Duplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alicewood")

	_, err := f.users.Register(ctx, "alicewood", "other@example.com", goodPassword)
	assert.ErrorIs(t, err, service.ErrDuplicateUsername)

	_, err = f.users.Register(ctx, "aliciaray", "ALICEWOOD@example.com", goodPassword)
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)

	// Both taken: username wins.
	_, err = f.users.Register(ctx, "alicewood", "alicewood@example.com", goodPassword)
	assert.ErrorIs(t, err, service.ErrDuplicateUsername)

	var n int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRegister_WeakPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Register(context.Background(), "bobbylee", "bobbylee@example.com", "password")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	var n int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRegister_UsernameLength(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"   ab     ", "short", strings.Repeat("x", 21)} {
		_, err := f.users.Register(ctx, name, "len@example.com", goodPassword)
		assert.ErrorIs(t, err, service.ErrInvalidUsername, "username %q", name)
	}

	u, err := f.users.Register(ctx, "  padded01  ", "len@example.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, "padded01", u.Username)

	var n int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"racerone1", "racertwo2"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = f.users.Register(ctx, name, "race@example.com", goodPassword)
		}(i, name)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, service.ErrDuplicateEmail):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)

	var n int64
	require.NoError(t, f.db.Model(&model.User{}).Where("email = ?", "race@example.com").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "carolann1")

	got, err := f.users.Authenticate(ctx, "CAROLANN1@example.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, errWrong := f.users.Authenticate(ctx, "carolann1@example.com", "Wr0ngPassword")
	_, errUnknown := f.users.Authenticate(ctx, "nobody@example.com", goodPassword)
	require.ErrorIs(t, errWrong, service.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, service.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestAuthenticate_BlockedUserStillAuthenticates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "davejones")
	_, err := f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)

	got, err := f.users.Authenticate(ctx, "davejones@example.com", goodPassword)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestAuthenticate_Lockout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "erinmoss")

	for i := 0; i < 3; i++ {
		_, err := f.users.Authenticate(ctx, "erinmoss@example.com", "Wr0ngPassword")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	}
	_, err := f.users.Authenticate(ctx, "erinmoss@example.com", goodPassword)
	assert.ErrorIs(t, err, service.ErrTooManyAttempts)

	// Unknown emails are throttled the same way.
	for i := 0; i < 3; i++ {
		_, _ = f.users.Authenticate(ctx, "ghost@example.com", goodPassword)
	}
	_, err = f.users.Authenticate(ctx, "ghost@example.com", goodPassword)
	assert.ErrorIs(t, err, service.ErrTooManyAttempts)
}

func TestAuthenticate_SuccessResetsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "franklin")

	for i := 0; i < 2; i++ {
		_, _ = f.users.Authenticate(ctx, "franklin@example.com", "Wr0ngPassword")
	}
	_, err := f.users.Authenticate(ctx, "franklin@example.com", goodPassword)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, _ = f.users.Authenticate(ctx, "franklin@example.com", "Wr0ngPassword")
	}
	_, err = f.users.Authenticate(ctx, "franklin@example.com", goodPassword)
	assert.NoError(t, err)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "ginagrey")

	got, err := f.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ginagrey", got.Username)

	_, err = f.users.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestSetActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "hankhill")

	got, err := f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Idempotent.
	got, err = f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got, err = f.users.SetActive(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	_, err = f.users.SetActive(ctx, 9999, false)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "irisfern")

	got, err := f.users.SetRole(ctx, u.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	reloaded, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, reloaded.Role)

	_, err = f.users.SetRole(ctx, u.ID, model.Role("god"))
	assert.ErrorIs(t, err, service.ErrInvalidRole)

	_, err = f.users.SetRole(ctx, 9999, model.RoleUser)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestAdjustBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "jackfrost")

	got, err := f.users.AdjustBalance(ctx, u.ID, 100, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Coins)
	assert.Equal(t, int64(5), got.Crystals)

	got, err = f.users.AdjustBalance(ctx, u.ID, -40, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Coins)

	_, err = f.users.AdjustBalance(ctx, u.ID, -61, 0)
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	_, err = f.users.AdjustBalance(ctx, u.ID, 10, -6)
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	got, err = f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Coins)
	assert.Equal(t, int64(5), got.Crystals)

	_, err = f.users.AdjustBalance(ctx, 9999, 1, 0)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
	_, err = f.users.AdjustBalance(ctx, 9999, 0, 0)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}
