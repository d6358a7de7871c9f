package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	calls atomic.Int32

	mu     sync.Mutex
	counts map[string]int
	err    error
	// gate, when set, blocks each fetch until it is closed or ctx ends.
	gate chan struct{}
}

func (f *fakeFetcher) Counts(ctx context.Context) (map[string]int, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts, f.err
}

func (f *fakeFetcher) set(counts map[string]int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts, f.err = counts, err
}

func TestStartFetchesImmediately(t *testing.T) {
	f := &fakeFetcher{counts: map[string]int{"messages.unread": 2}}
	updates := make(chan map[string]int, 8)
	p := New(f, time.Hour, logging.Nop(), WithOnUpdate(func(c map[string]int) { updates <- c }))

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	select {
	case got := <-updates:
		assert.Equal(t, map[string]int{"messages.unread": 2}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial fetch")
	}
	counts, at := p.Counts()
	assert.Equal(t, 2, counts["messages.unread"])
	assert.False(t, at.IsZero())
}

func TestTicksRefresh(t *testing.T) {
	f := &fakeFetcher{counts: map[string]int{"a": 1}}
	p := New(f, 5*time.Millisecond, logging.Nop())
	require.NoError(t, p.Start(context.Background()))

	require.Eventually(t, func() bool { return f.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	n := f.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, f.calls.Load(), "no fetch after Stop")
}

func TestOverlappingTickSkipped(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	p := New(f, time.Hour, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.True(t, p.tick(ctx))
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, p.tick(ctx), "second tick while the first is outstanding")
	assert.Equal(t, int32(1), f.calls.Load())

	close(f.gate)
	p.inflight.Wait()
	assert.True(t, p.tick(ctx))
	p.inflight.Wait()
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestFailureKeepsLastCounts(t *testing.T) {
	f := &fakeFetcher{}
	p := New(f, time.Hour, logging.Nop())
	p.Seed(map[string]int{"clients.active": 5}, time.Unix(100, 0))

	f.set(nil, errors.New("connection refused"))
	p.fetchOnce(context.Background())

	counts, at := p.Counts()
	assert.Equal(t, map[string]int{"clients.active": 5}, counts)
	assert.Equal(t, time.Unix(100, 0), at)

	f.set(map[string]int{"clients.active": 6}, nil)
	p.fetchOnce(context.Background())
	counts, _ = p.Counts()
	assert.Equal(t, 6, counts["clients.active"])
}

func TestStartStop(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	p := New(f, time.Millisecond, logging.Nop(), WithTimeout(time.Minute))

	require.NoError(t, p.Start(context.Background()))
	require.ErrorIs(t, p.Start(context.Background()), common.ErrBusy)

	require.Eventually(t, func() bool { return f.calls.Load() >= 1 }, time.Second, time.Millisecond)
	// The blocked fetch is cancelled by Stop.
	p.Stop()
	p.Stop()

	require.NoError(t, p.Start(context.Background()), "restart after stop")
	p.Stop()
}

func TestParentContextCancel(t *testing.T) {
	f := &fakeFetcher{counts: map[string]int{}}
	p := New(f, time.Millisecond, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	cancel()
	p.Stop()
}
