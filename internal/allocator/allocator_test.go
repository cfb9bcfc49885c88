package allocator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/internal/store/memory"
	"github.com/resourcebook/backend/pkg/apperror"
)

func newResource(t *testing.T, s *memory.Store) int64 {
	t.Helper()
	r := &models.Resource{Name: "desk", OrganizationID: 1, Status: models.ResourceEnabled}
	require.NoError(t, s.CreateResource(context.Background(), r))
	return r.ID
}

func TestAcquireRelease(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	id := newResource(t, s)

	require.NoError(t, Acquire(ctx, s, id))
	r, err := s.GetResource(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceDisabled, r.Status)

	err = Acquire(ctx, s, id)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	require.NoError(t, Release(ctx, s, id))
	require.NoError(t, Release(ctx, s, id))
	r, err = s.GetResource(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceEnabled, r.Status)
}

func TestAcquireMissingResource(t *testing.T) {
	err := Acquire(context.Background(), memory.New(), 404)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestReleaseMissingResourceIsNoop(t *testing.T) {
	assert.NoError(t, Release(context.Background(), memory.New(), 404))
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	id := newResource(t, s)

	const n = 32
	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(tx store.Tx) error {
				return Acquire(ctx, tx, id)
			})
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case apperror.Is(err, apperror.KindConflict):
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(n-1), conflicts)
}
