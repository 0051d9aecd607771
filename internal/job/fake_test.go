package job

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"rpgm-translator/internal/logentry"
)

type fakeService struct {
	mu           sync.Mutex
	uploadID     string
	uploadErr    error
	translateErr error
	samples      []Sample
	statusErr    error
	delay        time.Duration
	uploadGate   chan struct{}

	uploadCalls    atomic.Int32
	translateCalls atomic.Int32
	statusCalls    atomic.Int32
	inflight       atomic.Int32
	maxInflight    atomic.Int32
}

func (f *fakeService) Upload(ctx context.Context, _ string, _ []byte) (string, error) {
	f.uploadCalls.Add(1)
	f.mu.Lock()
	gate := f.uploadGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadID, f.uploadErr
}

func (f *fakeService) Translate(_ context.Context, _, _, _ string) error {
	f.translateCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.translateErr
}

func (f *fakeService) Status(ctx context.Context, _ string) (Sample, error) {
	f.statusCalls.Add(1)
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Sample{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return Sample{}, f.statusErr
	}
	if len(f.samples) == 0 {
		return Sample{Status: SampleInProgress}, nil
	}
	s := f.samples[0]
	if len(f.samples) > 1 {
		f.samples = f.samples[1:]
	}
	return s, nil
}

func dialog(raw, translated string) logentry.Entry {
	return logentry.Translation{Kind: logentry.KindDialog, File: "Map001.json", Index: 1, Total: 2, Raw: raw, Translated: translated}
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")

const testInterval = 5 * time.Millisecond

func waitCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
