package edit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"rpgm-translator/internal/logentry"
)

var (
	ErrSessionClosed   = errors.New("edit session is closed")
	ErrSaveInFlight    = errors.New("save already in progress")
	ErrNoEditableEntry = errors.New("no such editable entry")
)

// Store is the service side of an edit session.
type Store interface {
	EditableData(ctx context.Context, jobID string) ([]logentry.Entry, error)
	SubmitEdits(ctx context.Context, jobID string, entries []logentry.Entry) (string, error)
}

// Target receives the artifact reference produced by a successful save.
type Target interface {
	ReplaceDownload(jobID, ref string) error
}

// Reconciler opens edit sessions. Only the most recently opened session may save.
type Reconciler struct {
	store  Store
	target Target

	mu     sync.Mutex
	active *Session
}

func NewReconciler(store Store, target Target) *Reconciler {
	return &Reconciler{store: store, target: target}
}

// Open fetches the canonical log of a completed job. It never reuses entries
// accumulated while polling.
func (r *Reconciler) Open(ctx context.Context, jobID string) (*Session, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("open edit session: empty job id")
	}
	entries, err := r.store.EditableData(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load translation data: %w", err)
	}
	s := newSession(r, jobID, entries)

	r.mu.Lock()
	prev := r.active
	r.active = s
	r.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	return s, nil
}

func (r *Reconciler) isActive(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active == s
}

func (r *Reconciler) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == s {
		r.active = nil
	}
}

// Field is the editable view of one translated entry.
type Field struct {
	Kind       logentry.Kind
	File       string
	Path       string
	Index      int
	Total      int
	Raw        string
	Translated string
	Changed    bool
}

// Session holds one local edit set. Positions passed to SetTranslation refer
// to the editable subsequence; positions maps them back into the full log.
type Session struct {
	id     string
	jobID  string
	owner  *Reconciler
	saving *semaphore.Weighted

	mu        sync.Mutex
	full      []logentry.Entry
	positions []int
	original  []string
	closed    bool
}

func newSession(owner *Reconciler, jobID string, entries []logentry.Entry) *Session {
	s := &Session{
		id:     uuid.NewString(),
		jobID:  jobID,
		owner:  owner,
		saving: semaphore.NewWeighted(1),
		full:   append([]logentry.Entry(nil), entries...),
	}
	for i, e := range s.full {
		tr, ok := e.(logentry.Translation)
		if !ok || !tr.Kind.Editable() {
			continue
		}
		s.positions = append(s.positions, i)
		s.original = append(s.original, tr.Translated)
	}
	return s
}

func (s *Session) ID() string    { return s.id }
func (s *Session) JobID() string { return s.jobID }

// Len is the number of editable entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions)
}

// Total is the number of entries in the full log, editable or not.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.full)
}

func (s *Session) Fields() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Field, 0, len(s.positions))
	for i := range s.positions {
		out = append(out, s.fieldLocked(i))
	}
	return out
}

func (s *Session) Field(i int) (Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.positions) {
		return Field{}, fmt.Errorf("%w: %d", ErrNoEditableEntry, i)
	}
	return s.fieldLocked(i), nil
}

func (s *Session) fieldLocked(i int) Field {
	tr := s.full[s.positions[i]].(logentry.Translation)
	return Field{
		Kind:       tr.Kind,
		File:       tr.File,
		Path:       tr.Path,
		Index:      tr.Index,
		Total:      tr.Total,
		Raw:        tr.Raw,
		Translated: tr.Translated,
		Changed:    tr.Translated != s.original[i],
	}
}

// SetTranslation changes the translated text of editable entry i locally.
func (s *Session) SetTranslation(i int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if i < 0 || i >= len(s.positions) {
		return fmt.Errorf("%w: %d", ErrNoEditableEntry, i)
	}
	pos := s.positions[i]
	tr := s.full[pos].(logentry.Translation)
	tr.Translated = text
	s.full[pos] = tr
	return nil
}

func (s *Session) Changed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i, pos := range s.positions {
		if s.full[pos].(logentry.Translation).Translated != s.original[i] {
			n++
		}
	}
	return n
}

// Saving reports whether a save is in flight.
func (s *Session) Saving() bool {
	if s.saving.TryAcquire(1) {
		s.saving.Release(1)
		return false
	}
	return true
}

// Save submits the full log in original order, edited entries included, and on
// success hands the new reference to the target and closes the session. On
// failure the session stays open with its edits. A result that arrives after
// the session was closed or superseded is discarded.
func (s *Session) Save(ctx context.Context) (string, error) {
	if !s.saving.TryAcquire(1) {
		return "", ErrSaveInFlight
	}
	defer s.saving.Release(1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	payload := append([]logentry.Entry(nil), s.full...)
	s.mu.Unlock()

	ref, err := s.owner.store.SubmitEdits(ctx, s.jobID, payload)
	if err != nil {
		return "", fmt.Errorf("save translations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.owner.isActive(s) {
		return "", ErrSessionClosed
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("save translations: empty download reference")
	}
	if s.owner.target != nil {
		if err := s.owner.target.ReplaceDownload(s.jobID, ref); err != nil {
			return "", err
		}
	}
	s.closed = true
	s.owner.release(s)
	return ref, nil
}

// Close ends the session. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.owner.release(s)
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
