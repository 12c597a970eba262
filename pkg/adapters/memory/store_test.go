package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryStore_SaveCopies(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	session := domain.NewSession("s", domain.Node{ID: "greeting", Message: "Hello!"})
	require.NoError(t, store.Save(ctx, "s", session))
	session.Transcript[0].Message = "changed after save"

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", loaded.Transcript[0].Message)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("s-%02d", i)
			assert.NoError(t, store.Save(ctx, id, domain.NewSession(id, domain.Node{ID: "greeting"})))
			_, err := store.Load(ctx, id)
			assert.NoError(t, err)
			_, err = store.List(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s-00", ids[0])
	assert.Equal(t, "s-49", ids[49])
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, "s", domain.NewSession("s", domain.Node{ID: "greeting"})), context.Canceled)
	_, err := store.Load(ctx, "s")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}
