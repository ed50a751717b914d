package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quorum-lending/internal/domain/event"
	"quorum-lending/internal/testutil/platformtest"
	"quorum-lending/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	got     []string
	failOn  string
	failErr error
}

func (p *fakePublisher) Publish(_ context.Context, e *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e.ID == p.failOn {
		return p.failErr
	}
	p.got = append(p.got, e.ID)
	return nil
}

func (p *fakePublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.got...)
}

func seed(t *testing.T, f *platformtest.Fixture, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		e, err := event.New(event.TypeVoteCast, uint64(i+1), "", nil, platformtest.Start)
		require.NoError(t, err)
		require.NoError(t, f.Events.Append(context.Background(), e))
		ids = append(ids, e.ID)
	}
	return ids
}

func TestRunOnce_PublishesInOrderAndMarks(t *testing.T) {
	f := platformtest.New(t, 3, 0)
	ids := seed(t, f, 3)
	pub := &fakePublisher{}
	r := Relay{Events: f.Events, Publisher: pub, Clock: clock.NewManual(platformtest.Start), BatchSize: 2}

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, ids[:2], pub.ids())

	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, ids, pub.ids())

	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	all := f.EventsOf(t, "")
	for _, e := range all {
		assert.Equal(t, event.StatusPublished, e.Status)
		require.NotNil(t, e.PublishedAt)
	}
}

func TestRunOnce_StopsAtFirstFailure(t *testing.T) {
	f := platformtest.New(t, 3, 0)
	ids := seed(t, f, 3)
	boom := errors.New("broker down")
	pub := &fakePublisher{failOn: ids[1], failErr: boom}
	r := Relay{Events: f.Events, Publisher: pub}

	n, err := r.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)

	pending, err := f.Events.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[1], pending[0].ID, "failed row is retried first")

	pub.failOn = ""
	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, ids, pub.ids())
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := platformtest.New(t, 3, 0)
	seed(t, f, 1)
	pub := &fakePublisher{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Relay{Events: f.Events, Publisher: pub, Interval: 10 * time.Millisecond}.Run(ctx) }()

	require.Eventually(t, func() bool { return len(pub.ids()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
