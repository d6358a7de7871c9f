// Package poller refreshes the navigation counters in the background while a
// console session is open.
package poller

import (
	"context"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/logging"
)

// Fetcher reads the current counters.
type Fetcher interface {
	Counts(ctx context.Context) (map[string]int, error)
}

type Option func(*Poller)

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// WithOnUpdate registers a callback run after every successful fetch.
func WithOnUpdate(fn func(map[string]int)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// Poller fetches counters once on Start and then on every tick. A tick that
// fires while the previous fetch is still outstanding is skipped. Failures
// are logged and the last good counters are kept.
type Poller struct {
	fetch    Fetcher
	interval time.Duration
	timeout  time.Duration
	onUpdate func(map[string]int)
	log      logging.Logger

	sem      *semaphore.Weighted
	inflight sync.WaitGroup

	mu      sync.RWMutex
	counts  map[string]int
	updated time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(f Fetcher, interval time.Duration, log logging.Logger, opts ...Option) *Poller {
	if log == nil {
		log = logging.Nop()
	}
	p := &Poller{
		fetch:    f,
		interval: interval,
		log:      log,
		sem:      semaphore.NewWeighted(1),
		counts:   map[string]int{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start begins polling until Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return common.ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
	return nil
}

// Stop cancels polling and waits for the loop and any outstanding fetch.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Counts returns the last good counters and when they were fetched.
func (p *Poller) Counts() (map[string]int, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.counts), p.updated
}

// Seed sets counters loaded from elsewhere, e.g. the local cache.
func (p *Poller) Seed(counts map[string]int, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = maps.Clone(counts)
	p.updated = at
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.inflight.Wait()

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// tick starts a fetch unless one is outstanding. It reports whether a fetch
// was started.
func (p *Poller) tick(ctx context.Context) bool {
	if !p.sem.TryAcquire(1) {
		p.log.Debug(ctx, "counts fetch still outstanding, tick skipped")
		return false
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer p.sem.Release(1)
		p.fetchOnce(ctx)
	}()
	return true
}

func (p *Poller) fetchOnce(ctx context.Context) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	counts, err := p.fetch.Counts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn(ctx, "counts refresh failed", "error", err)
		}
		return
	}

	p.mu.Lock()
	p.counts = maps.Clone(counts)
	p.updated = time.Now()
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(maps.Clone(counts))
	}
}
