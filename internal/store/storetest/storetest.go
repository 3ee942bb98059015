// Package storetest holds the behaviour every AttemptRepository must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"paysync/internal/domain/payment"
	"paysync/internal/store/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository for one subtest
type Factory func(t *testing.T) repositories.AttemptRepository

func newAttempt(t *testing.T, id string) *payment.Attempt {
	t.Helper()
	a, err := payment.NewAttempt(id, 1234, payment.USD, "Ada Lovelace", "ada@example.com")
	require.NoError(t, err)
	return a
}

// Run exercises the repository contract against fresh repositories from newRepo
func Run(t *testing.T, newRepo Factory) {
	t.Run("create then find", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newAttempt(t, "pi_create")))

		got, err := repo.FindByID(ctx, "pi_create")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, got.Status)
		assert.Equal(t, payment.Money(1234), got.Amount)
		assert.Equal(t, payment.USD, got.Currency)
		assert.Equal(t, "ada@example.com", got.PayerEmail)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := newRepo(t).FindByID(context.Background(), "pi_missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("create never resets status", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newAttempt(t, "pi_dup")))
		applied, err := repo.Transition(ctx, "pi_dup", payment.StatusSucceeded)
		require.NoError(t, err)
		require.True(t, applied)

		err = repo.Create(ctx, newAttempt(t, "pi_dup"))
		assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

		got, err := repo.FindByID(ctx, "pi_dup")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusSucceeded, got.Status)
	})

	t.Run("pending moves to each terminal status", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		for _, to := range []payment.Status{
			payment.StatusSucceeded,
			payment.StatusRequiresPaymentMethod,
			payment.StatusCanceled,
		} {
			id := "pi_" + string(to)
			require.NoError(t, repo.Create(ctx, newAttempt(t, id)))
			applied, err := repo.Transition(ctx, id, to)
			require.NoError(t, err)
			assert.True(t, applied)

			got, err := repo.FindByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, to, got.Status)
		}
	})

	t.Run("terminal status is sticky", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newAttempt(t, "pi_sticky")))

		applied, err := repo.Transition(ctx, "pi_sticky", payment.StatusSucceeded)
		require.NoError(t, err)
		require.True(t, applied)

		for _, to := range []payment.Status{payment.StatusCanceled, payment.StatusRequiresPaymentMethod, payment.StatusSucceeded} {
			applied, err = repo.Transition(ctx, "pi_sticky", to)
			require.NoError(t, err)
			assert.False(t, applied, "succeeded -> %s", to)
		}

		got, err := repo.FindByID(ctx, "pi_sticky")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusSucceeded, got.Status)
	})

	t.Run("transition rejects pending target", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newAttempt(t, "pi_back")))
		_, err := repo.Transition(ctx, "pi_back", payment.StatusPending)
		assert.Error(t, err)
	})

	t.Run("transition on unknown id records terminal status", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		applied, err := repo.Transition(ctx, "pi_orphan", payment.StatusCanceled)
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := repo.FindByID(ctx, "pi_orphan")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusCanceled, got.Status)
	})

	t.Run("concurrent conflicting transitions apply once", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newAttempt(t, "pi_race")))

		targets := []payment.Status{
			payment.StatusSucceeded,
			payment.StatusRequiresPaymentMethod,
			payment.StatusCanceled,
		}
		var applied atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 30; i++ {
			wg.Add(1)
			go func(to payment.Status) {
				defer wg.Done()
				ok, err := repo.Transition(ctx, "pi_race", to)
				assert.NoError(t, err)
				if ok {
					applied.Add(1)
				}
			}(targets[i%len(targets)])
		}
		wg.Wait()

		assert.Equal(t, int32(1), applied.Load())
		got, err := repo.FindByID(ctx, "pi_race")
		require.NoError(t, err)
		assert.True(t, got.Status.IsTerminal())
	})

	t.Run("independent keys", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("pi_key_%d", i)
				assert.NoError(t, repo.Create(ctx, newAttempt(t, id)))
				ok, err := repo.Transition(ctx, id, payment.StatusSucceeded)
				assert.NoError(t, err)
				assert.True(t, ok)
			}(i)
		}
		wg.Wait()

		for i := 0; i < 20; i++ {
			got, err := repo.FindByID(ctx, fmt.Sprintf("pi_key_%d", i))
			require.NoError(t, err)
			assert.Equal(t, payment.StatusSucceeded, got.Status)
		}
	})
}
