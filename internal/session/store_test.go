package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/askdsa/internal/domain"
)

func TestMemoryStoreHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown session starts empty", func(t *testing.T) {
		store := NewMemoryStore()

		turns, err := store.History(ctx, "fresh")

		require.NoError(t, err)
		assert.Empty(t, turns)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("preserves exchange order", func(t *testing.T) {
		store := NewMemoryStore()

		require.NoError(t, store.AppendExchange(ctx, "s1",
			domain.UserTurn("what is a queue?"),
			domain.ModelTurn("A queue is a FIFO structure.")))
		require.NoError(t, store.AppendExchange(ctx, "s1",
			domain.UserTurn("and a stack?"),
			domain.ModelTurn("A stack is LIFO.")))

		turns, err := store.History(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, turns, 4)
		assert.Equal(t, []domain.Turn{
			domain.UserTurn("what is a queue?"),
			domain.ModelTurn("A queue is a FIFO structure."),
			domain.UserTurn("and a stack?"),
			domain.ModelTurn("A stack is LIFO."),
		}, turns)
		assert.True(t, domain.ValidHistory(turns))
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		store := NewMemoryStore()

		require.NoError(t, store.AppendExchange(ctx, "a",
			domain.UserTurn("q"), domain.ModelTurn("a")))

		turns, err := store.History(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, turns)

		turns, err = store.History(ctx, "a")
		require.NoError(t, err)
		assert.Len(t, turns, 2)
	})

	t.Run("history returns a copy", func(t *testing.T) {
		store := NewMemoryStore()

		require.NoError(t, store.AppendExchange(ctx, "s",
			domain.UserTurn("q"), domain.ModelTurn("a")))

		turns, err := store.History(ctx, "s")
		require.NoError(t, err)
		turns[0] = domain.UserTurn("mutated")

		again, err := store.History(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, "q", again[0].Text)
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const writers = 20
	const exchanges = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < exchanges; j++ {
				_ = store.AppendExchange(ctx, "shared",
					domain.UserTurn("q"), domain.ModelTurn("a"))
			}
		}()
	}
	wg.Wait()

	turns, err := store.History(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, turns, writers*exchanges*2)

	// Exchanges land as adjacent pairs even under contention.
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, domain.RoleUser, turns[i].Role)
		assert.Equal(t, domain.RoleModel, turns[i+1].Role)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("evicts stale sessions only", func(t *testing.T) {
		store := NewMemoryStore()

		require.NoError(t, store.AppendExchange(ctx, "stale",
			domain.UserTurn("q"), domain.ModelTurn("a")))

		store.mu.Lock()
		store.sessions["stale"].lastActive = time.Now().Add(-2 * time.Hour)
		store.mu.Unlock()

		require.NoError(t, store.AppendExchange(ctx, "live",
			domain.UserTurn("q"), domain.ModelTurn("a")))

		evicted := store.Sweep(time.Hour)

		assert.Equal(t, 1, evicted)
		assert.Equal(t, 1, store.Len())

		turns, err := store.History(ctx, "stale")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("zero ttl disables eviction", func(t *testing.T) {
		store := NewMemoryStore()

		require.NoError(t, store.AppendExchange(ctx, "s",
			domain.UserTurn("q"), domain.ModelTurn("a")))

		assert.Equal(t, 0, store.Sweep(0))
		assert.Equal(t, 1, store.Len())
	})
}
