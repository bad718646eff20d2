package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	alice := factory.CreateUser(t, "Alice", "alice@example.com")
	bob := factory.CreateUser(t, "Bob", "bob@example.com")

	t.Run("generated id", func(t *testing.T) {
		_, err := uuid.Parse(alice.ID)
		require.NoError(t, err)
		assert.False(t, alice.CreatedAt.IsZero())
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := storage.GetUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.Name)
		assert.Equal(t, "hashedpassword", got.PasswordHash)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := storage.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := storage.GetUser(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = storage.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := storage.GetUser(ctx, "not-a-uuid")
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindNotFound, appErr.Kind)
		assert.Equal(t, "Resource not found. Invalid: id", appErr.Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := storage.CreateUser(ctx, &models.User{Name: "Alice2", Email: "alice@example.com", PasswordHash: "x"})
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindConflict, appErr.Kind)
		assert.Equal(t, "Duplicate field value entered: email", appErr.Message)
	})

	t.Run("list in registration order", func(t *testing.T) {
		users, err := storage.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, alice.ID, users[0].ID)
		assert.Equal(t, bob.ID, users[1].ID)
	})
}

func TestStorage_WithTx(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := storage.WithTx(ctx, func(tx *Storage) error {
			require.NoError(t, tx.CreateUser(ctx, &models.User{Name: "Carol", Email: "carol@example.com", PasswordHash: "x"}))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countUsers(t, storage))
	})

	t.Run("commit on success", func(t *testing.T) {
		err := storage.WithTx(ctx, func(tx *Storage) error {
			if _, err := tx.GetUserByEmail(ctx, "dave@example.com"); !errors.Is(err, ErrNotFound) {
				return err
			}
			return tx.CreateUser(ctx, &models.User{Name: "Dave", Email: "dave@example.com", PasswordHash: "x"})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countUsers(t, storage))
	})

	t.Run("concurrent sign-ups with one email", func(t *testing.T) {
		const workers = 2
		var checked, done sync.WaitGroup
		checked.Add(workers)
		done.Add(workers)

		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				defer done.Done()
				errs[i] = storage.WithTx(ctx, func(tx *Storage) error {
					_, err := tx.GetUserByEmail(ctx, "erin@example.com")
					checked.Done()
					if !errors.Is(err, ErrNotFound) {
						return err
					}
					// обе транзакции видят, что почта свободна
					checked.Wait()
					return tx.CreateUser(ctx, &models.User{Name: "Erin", Email: "erin@example.com", PasswordHash: "x"})
				})
			}(i)
		}
		done.Wait()

		committed := 0
		for _, err := range errs {
			if err == nil {
				committed++
				continue
			}
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
			assert.Equal(t, "Duplicate field value entered: email", apperr.PublicMessage(err))
		}
		assert.Equal(t, 1, committed)
		assert.Equal(t, 2, countUsers(t, storage))
	})
}

func TestStorage_Subscriptions(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	owner := factory.CreateUser(t, "Alice", "alice@example.com")
	other := factory.CreateUser(t, "Bob", "bob@example.com")

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	soon := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	later := time.Now().UTC().Add(20 * 24 * time.Hour).Truncate(time.Second)

	first := factory.CreateSubscription(t, owner.ID, "Netflix", start, &later, models.StatusActive)
	second := factory.CreateSubscription(t, owner.ID, "Spotify", start, &soon, models.StatusActive)
	factory.CreateSubscription(t, owner.ID, "Coursera", start, &soon, models.StatusCancelled)
	factory.CreateSubscription(t, other.ID, "Disney", start, &soon, models.StatusActive)

	t.Run("get", func(t *testing.T) {
		got, err := storage.GetSubscription(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Netflix", got.Name)
		assert.Equal(t, owner.ID, got.UserID)
		require.NotNil(t, got.RenewalDate)
		assert.True(t, later.Equal(*got.RenewalDate))
	})

	t.Run("get missing and malformed", func(t *testing.T) {
		_, err := storage.GetSubscription(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = storage.GetSubscription(ctx, "42")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("list by owner in insertion order", func(t *testing.T) {
		subs, err := storage.ListSubscriptionsByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, subs, 3)
		assert.Equal(t, []string{"Netflix", "Spotify", "Coursera"},
			[]string{subs[0].Name, subs[1].Name, subs[2].Name})
	})

	t.Run("list for owner without subscriptions", func(t *testing.T) {
		subs, err := storage.ListSubscriptionsByOwner(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("upcoming renewals", func(t *testing.T) {
		now := time.Now().UTC()
		subs, err := storage.ListUpcomingRenewals(ctx, owner.ID, now, now.Add(7*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, second.ID, subs[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		second.Status = models.StatusCancelled
		before := second.UpdatedAt
		require.NoError(t, storage.UpdateSubscription(ctx, second))
		assert.False(t, second.UpdatedAt.Before(before))

		got, err := storage.GetSubscription(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
	})

	t.Run("update missing", func(t *testing.T) {
		missing := *first
		missing.ID = uuid.NewString()
		err := storage.UpdateSubscription(ctx, &missing)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("lapsed and due across owners", func(t *testing.T) {
		now := time.Now().UTC()
		past := now.Add(-24 * time.Hour).Truncate(time.Second)
		lapsed := factory.CreateSubscription(t, other.ID, "Hulu", start, &past, models.StatusActive)
		factory.CreateSubscription(t, other.ID, "HBO", start, &past, models.StatusExpired)

		subs, err := storage.ListLapsedSubscriptions(ctx, now)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, lapsed.ID, subs[0].ID)

		due, err := storage.ListDueRenewals(ctx, now, now.Add(7*24*time.Hour))
		require.NoError(t, err)
		names := make([]string, 0, len(due))
		for _, sub := range due {
			names = append(names, sub.Name)
		}
		assert.Equal(t, []string{"Disney"}, names)
	})
}
