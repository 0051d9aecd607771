package job

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultPollInterval is the status sampling period.
const DefaultPollInterval = time.Second

type StatusFunc func(ctx context.Context, jobID string) (Sample, error)

// Poller turns a started job into a stream of status samples.
type Poller struct {
	interval time.Duration
	query    StatusFunc
}

func NewPoller(interval time.Duration, query StatusFunc) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, query: query}
}

// PollHandle owns one polling loop. Cancel is idempotent; once it returns no
// further sample is delivered.
type PollHandle struct {
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	skipped int
	issued  int
}

// Start samples jobID every interval until a terminal sample, a query error or
// Cancel. At most one query is outstanding; ticks that fire while a query is in
// flight are skipped. deliver is called sequentially in arrival order.
func (p *Poller) Start(parent context.Context, jobID string, deliver func(Sample, error)) *PollHandle {
	ctx, cancel := context.WithCancel(parent)
	h := &PollHandle{
		cancel: cancel,
		sem:    semaphore.NewWeighted(1),
		done:   make(chan struct{}),
	}
	go h.loop(ctx, p.interval, func(ctx context.Context) {
		s, err := p.query(ctx, jobID)
		h.deliver(ctx, s, err, deliver)
	})
	return h
}

func (h *PollHandle) loop(ctx context.Context, interval time.Duration, sample func(context.Context)) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var inflight sync.WaitGroup
	defer inflight.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.sem.TryAcquire(1) {
				h.mu.Lock()
				h.skipped++
				h.mu.Unlock()
				continue
			}
			if ctx.Err() != nil {
				h.sem.Release(1)
				return
			}
			h.mu.Lock()
			h.issued++
			h.mu.Unlock()
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				defer h.sem.Release(1)
				sample(ctx)
			}()
		}
	}
}

func (h *PollHandle) deliver(ctx context.Context, s Sample, err error, fn func(Sample, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped || ctx.Err() != nil {
		return
	}
	if err != nil || s.Terminal() {
		h.stopped = true
		h.cancel()
	}
	fn(s, err)
}

func (h *PollHandle) Cancel() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.cancel()
}

// Done is closed once the loop and any in-flight query have returned.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

func (h *PollHandle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// Stats reports issued queries and ticks skipped because a query was in flight.
func (h *PollHandle) Stats() (issued, skipped int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.issued, h.skipped
}
