package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/exports"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store/memory"
	"github.com/resourcebook/backend/pkg/queue"
)

type bucket struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (b *bucket) PutExport(_ context.Context, key string, body io.Reader, _ int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	b.keys = append(b.keys, key)
	return nil
}

func (b *bucket) ExportURL(_ context.Context, key string) (string, error) {
	return "https://exports.example/" + key, nil
}

type harness struct {
	store  *memory.Store
	queue  *queue.Queue
	bucket *bucket
	svc    *exports.Service
	proc   *ExportProcessor
	org    *models.Organization
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{store: memory.New(), queue: queue.NewQueue(client, nil), bucket: &bucket{}}
	h.svc = exports.NewService(h.store, h.queue, h.bucket, nil)
	h.proc = NewExportProcessor(h.svc, h.queue, nil)
	h.proc.backoff = 10 * time.Millisecond

	h.org = &models.Organization{Name: "acme"}
	require.NoError(t, h.store.CreateOrganization(context.Background(), h.org))
	return h
}

func (h *harness) state(t *testing.T, id int64) models.ExportState {
	t.Helper()
	e, err := h.store.GetExport(context.Background(), id)
	require.NoError(t, err)
	return e.State
}

func TestProcessCompletesExport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	e, err := h.svc.Request(ctx, h.org.ID, 1, nil)
	require.NoError(t, err)

	job, err := h.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NoError(t, h.proc.Process(ctx, job))

	assert.Equal(t, models.ExportCompleted, h.state(t, e.ID))
	assert.Len(t, h.bucket.keys, 1)
}

func TestProcessRejectsForeignJob(t *testing.T) {
	h := newHarness(t)
	err := h.proc.Process(context.Background(), &queue.Job{ID: "x", Type: "email", Payload: []byte(`{}`)})
	assert.Error(t, err)
}

func TestRunCompletesQueuedExport(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e, err := h.svc.Request(ctx, h.org.ID, 1, nil)
	require.NoError(t, err)

	go h.proc.Run(ctx)

	require.Eventually(t, func() bool {
		return h.state(t, e.ID) == models.ExportCompleted
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRunMarksExportFailedAfterRetries(t *testing.T) {
	h := newHarness(t)
	h.bucket.err = errors.New("bucket unavailable")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e, err := h.svc.Request(ctx, h.org.ID, 1, nil)
	require.NoError(t, err)

	go h.proc.Run(ctx)

	require.Eventually(t, func() bool {
		return h.state(t, e.ID) == models.ExportFailed
	}, 5*time.Second, 20*time.Millisecond)

	n, err := h.queue.Len(context.Background(), queue.QueueDLQ)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := h.store.GetExport(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Error, "bucket unavailable")
}
