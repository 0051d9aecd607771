package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"rpgm-translator/internal/logentry"
)

var (
	ErrInvalidPhase = errors.New("invalid phase for this action")
	ErrBusy         = errors.New("another request for this job is in flight")
)

// Service is the part of the external job service the lifecycle needs.
// Translate returns an error for both rejections and transport failures.
type Service interface {
	Upload(ctx context.Context, filename string, content []byte) (string, error)
	Translate(ctx context.Context, jobID, sourceLang, targetLang string) error
	Status(ctx context.Context, jobID string) (Sample, error)
}

type run struct {
	handle *PollHandle
	done   chan struct{}
	once   sync.Once
}

func (r *run) finish() {
	r.once.Do(func() { close(r.done) })
}

func (r *run) stop() {
	if r == nil {
		return
	}
	r.handle.Cancel()
	r.finish()
}

// Machine drives a job through Idle, Uploaded, Translating and Completed or Failed.
// While a poll is active only the poll delivery path mutates the job.
type Machine struct {
	svc    Service
	poller *Poller

	mu         sync.Mutex
	job        Job
	current    *run
	submitting bool
	onChange   func(Job)
	seq        uint64

	notifyMu sync.Mutex
	notified uint64
}

func NewMachine(svc Service, interval time.Duration) *Machine {
	return &Machine{
		svc:    svc,
		poller: NewPoller(interval, svc.Status),
		job:    Job{Phase: PhaseIdle},
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// Calls are sequential and in order; a snapshot overtaken by a newer one is
// dropped. fn must not call back into the machine synchronously.
func (m *Machine) OnChange(fn func(Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Machine) Snapshot() Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job.clone()
}

// Upload submits a new archive. On success any active poll is cancelled and
// the job record is replaced; on failure the job is left untouched.
func (m *Machine) Upload(ctx context.Context, filename string, content []byte) error {
	if err := m.beginSubmit(); err != nil {
		return err
	}
	id, err := m.svc.Upload(ctx, filename, content)
	if err != nil {
		m.endSubmit()
		return fmt.Errorf("upload failed: %w", err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		m.endSubmit()
		return fmt.Errorf("upload failed: empty job id")
	}
	m.stopPolling()

	m.mu.Lock()
	m.submitting = false
	m.job = Job{ID: id, Phase: PhaseUploaded}
	notify := m.changedLocked()
	m.mu.Unlock()
	notify()
	return nil
}

// Translate starts a run for the current job. It is valid after an upload and
// as a re-run from Completed or Failed, which first clears the log and progress.
// A rejected submission moves the job to Failed without polling.
func (m *Machine) Translate(ctx context.Context, sourceLang, targetLang string) error {
	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return ErrBusy
	}
	switch m.job.Phase {
	case PhaseUploaded, PhaseCompleted, PhaseFailed:
	default:
		phase := m.job.Phase
		m.mu.Unlock()
		return fmt.Errorf("%w: translate in %s", ErrInvalidPhase, phase)
	}
	m.submitting = true
	id := m.job.ID
	m.job = Job{ID: id, Phase: PhaseUploaded, SourceLanguage: sourceLang, TargetLanguage: targetLang}
	m.mu.Unlock()

	err := m.svc.Translate(ctx, id, sourceLang, targetLang)

	m.mu.Lock()
	m.submitting = false
	if err != nil {
		m.job.Phase = PhaseFailed
		m.job.ErrorMessage = submissionMessage(err)
		notify := m.changedLocked()
		m.mu.Unlock()
		notify()
		return fmt.Errorf("translate: %w", err)
	}
	m.job.Phase = PhaseTranslating
	m.startPollingLocked(ctx)
	notify := m.changedLocked()
	m.mu.Unlock()
	notify()
	return nil
}

// Track attaches to a job that was started elsewhere and polls it to a terminal phase.
func (m *Machine) Track(ctx context.Context, jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return fmt.Errorf("%w: empty job id", ErrInvalidPhase)
	}
	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return ErrBusy
	}
	prev := m.detachLocked()
	m.job = Job{ID: jobID, Phase: PhaseTranslating}
	m.startPollingLocked(ctx)
	notify := m.changedLocked()
	m.mu.Unlock()
	prev.stop()
	notify()
	return nil
}

// Wait blocks until the active run reaches a terminal phase, polling is
// stopped, or ctx ends.
func (m *Machine) Wait(ctx context.Context) (Job, error) {
	m.mu.Lock()
	r := m.current
	m.mu.Unlock()
	if r != nil {
		select {
		case <-r.done:
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		}
	}
	return m.Snapshot(), nil
}

// Stop cancels polling. Safe to call any number of times.
func (m *Machine) Stop() {
	m.stopPolling()
}

// RequestEdit hands the job id to an edit session; the phase does not change.
func (m *Machine) RequestEdit() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.job.Phase != PhaseCompleted {
		return "", fmt.Errorf("%w: edit in %s", ErrInvalidPhase, m.job.Phase)
	}
	return m.job.ID, nil
}

// ReplaceDownload supersedes the artifact reference of a completed job.
func (m *Machine) ReplaceDownload(jobID, ref string) error {
	ref = strings.TrimSpace(ref)
	m.mu.Lock()
	if m.job.Phase != PhaseCompleted || m.job.ID != jobID {
		phase := m.job.Phase
		m.mu.Unlock()
		return fmt.Errorf("%w: replace download in %s", ErrInvalidPhase, phase)
	}
	if ref == "" {
		m.mu.Unlock()
		return fmt.Errorf("empty download reference")
	}
	m.job.DownloadRef = ref
	notify := m.changedLocked()
	m.mu.Unlock()
	notify()
	return nil
}

func (m *Machine) beginSubmit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitting {
		return ErrBusy
	}
	m.submitting = true
	return nil
}

func (m *Machine) endSubmit() {
	m.mu.Lock()
	m.submitting = false
	m.mu.Unlock()
}

func (m *Machine) startPollingLocked(ctx context.Context) {
	r := &run{done: make(chan struct{})}
	m.current = r
	id := m.job.ID
	r.handle = m.poller.Start(ctx, id, func(s Sample, err error) {
		m.apply(r, s, err)
	})
	go func() {
		<-r.handle.Done()
		r.finish()
	}()
}

func (m *Machine) stopPolling() {
	m.mu.Lock()
	r := m.detachLocked()
	m.mu.Unlock()
	r.stop()
}

// detachLocked unhooks the active run so its deliveries are ignored; the
// caller stops it after releasing m.mu.
func (m *Machine) detachLocked() *run {
	r := m.current
	m.current = nil
	return r
}

func (m *Machine) apply(r *run, s Sample, err error) {
	m.mu.Lock()
	if m.current != r {
		m.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		m.failLocked("Failed to get translation status: " + err.Error())
	case s.Status == SampleCompleted:
		if strings.TrimSpace(s.DownloadRef) == "" {
			m.failLocked("translation completed without a download reference")
			break
		}
		m.job.Phase = PhaseCompleted
		m.job.Progress = 1
		m.job.CurrentFile, m.job.TotalFiles = s.CurrentFile, s.TotalFiles
		m.job.Entries = append([]logentry.Entry(nil), s.Log...)
		m.job.DownloadRef = strings.TrimSpace(s.DownloadRef)
		m.job.ErrorMessage = ""
	case s.Status == SampleError:
		msg := strings.TrimSpace(s.Message)
		if msg == "" {
			msg = "translation failed"
		}
		m.failLocked(msg)
	default:
		if p := s.Progress(); p > m.job.Progress {
			m.job.Progress = p
		}
		m.job.CurrentFile, m.job.TotalFiles = s.CurrentFile, s.TotalFiles
		m.job.Entries = append([]logentry.Entry(nil), s.Log...)
	}
	terminal := m.job.Terminal()
	notify := m.changedLocked()
	m.mu.Unlock()
	notify()
	if terminal {
		r.finish()
	}
}

// changedLocked records a state change. The returned func delivers the
// snapshot and must be called after m.mu is released.
func (m *Machine) changedLocked() func() {
	m.seq++
	seq, snap, fn := m.seq, m.job.clone(), m.onChange
	return func() {
		if fn == nil {
			return
		}
		m.notifyMu.Lock()
		defer m.notifyMu.Unlock()
		if seq <= m.notified {
			return
		}
		m.notified = seq
		fn(snap)
	}
}

func (m *Machine) failLocked(msg string) {
	m.job.Phase = PhaseFailed
	m.job.ErrorMessage = msg
	m.job.DownloadRef = ""
}

// Rejection is an application-level refusal reported by the service.
type Rejection struct {
	Message string
}

func (e *Rejection) Error() string {
	return e.Message
}

func submissionMessage(err error) string {
	var rej *Rejection
	if errors.As(err, &rej) && strings.TrimSpace(rej.Message) != "" {
		return strings.TrimSpace(rej.Message)
	}
	return "Failed to start translation: " + err.Error()
}
