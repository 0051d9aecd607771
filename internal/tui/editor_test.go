package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"rpgm-translator/internal/edit"
	"rpgm-translator/internal/logentry"
)

type stubStore struct {
	entries   []logentry.Entry
	submitErr error
	submitted []logentry.Entry
}

func (s *stubStore) EditableData(context.Context, string) ([]logentry.Entry, error) {
	return append([]logentry.Entry(nil), s.entries...), nil
}

func (s *stubStore) SubmitEdits(_ context.Context, jobID string, entries []logentry.Entry) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.submitted = entries
	return "/api/download/" + jobID + "?edited=1", nil
}

func openSession(t *testing.T, store *stubStore) (*edit.Reconciler, *edit.Session) {
	t.Helper()
	r := edit.NewReconciler(store, nil)
	s, err := r.Open(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	return r, s
}

func sampleStore() *stubStore {
	return &stubStore{entries: []logentry.Entry{
		logentry.Translation{Kind: logentry.KindDialog, File: "Map001.json", Path: "a", Index: 1, Total: 2, Raw: "Ciao", Translated: "Halo"},
		logentry.Anomaly{Path: "b", Raw: "???"},
		logentry.Translation{Kind: logentry.KindDialog, File: "Map001.json", Path: "c", Index: 2, Total: 2, Raw: "Addio", Translated: "Selamat"},
	}}
}

func send(t *testing.T, m EditorModel, msg tea.Msg) (EditorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	em, ok := next.(EditorModel)
	if !ok {
		t.Fatalf("unexpected model %T", next)
	}
	return em, cmd
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestEditor_NavigateEditAndSave(t *testing.T) {
	store := sampleStore()
	_, s := openSession(t, store)
	m := NewEditorModel(context.Background(), s)
	if len(m.fields) != 2 {
		t.Fatalf("fields=%d", len(m.fields))
	}

	m, _ = send(t, m, key(tea.KeyDown))
	m, _ = send(t, m, key(tea.KeyDown))
	if m.cursor != 1 {
		t.Fatalf("cursor=%d", m.cursor)
	}
	m, _ = send(t, m, key(tea.KeyEnter))
	if !m.editing || m.input.Value() != "Selamat" {
		t.Fatalf("editing=%v value=%q", m.editing, m.input.Value())
	}
	m.input.SetValue("Selamat tinggal")
	m, _ = send(t, m, key(tea.KeyEnter))
	if m.editing {
		t.Fatal("enter should apply the edit")
	}
	if !m.fields[1].Changed || m.fields[1].Translated != "Selamat tinggal" {
		t.Fatalf("field=%+v", m.fields[1])
	}
	if !strings.Contains(m.View(), "1 changed") {
		t.Fatalf("view missing change count:\n%s", m.View())
	}

	m, cmd := send(t, m, key(tea.KeyCtrlS))
	if cmd == nil || !m.saving {
		t.Fatal("ctrl+s should start a save")
	}
	m, cmd = send(t, m, cmd())
	if m.SavedRef() != "/api/download/abc?edited=1" || !m.Closed() || cmd == nil {
		t.Fatalf("ref=%q closed=%v", m.SavedRef(), m.Closed())
	}
	if len(store.submitted) != 3 {
		t.Fatalf("submitted=%v", store.submitted)
	}
	if tr := store.submitted[2].(logentry.Translation); tr.Translated != "Selamat tinggal" {
		t.Fatalf("submitted=%#v", tr)
	}
}

func TestEditor_EscCancelsEditThenCloses(t *testing.T) {
	_, s := openSession(t, sampleStore())
	m := NewEditorModel(context.Background(), s)
	m, _ = send(t, m, key(tea.KeyEnter))
	m.input.SetValue("discarded")
	m, _ = send(t, m, key(tea.KeyEsc))
	if m.editing || m.fields[0].Translated != "Halo" {
		t.Fatalf("editing=%v field=%+v", m.editing, m.fields[0])
	}
	m, cmd := send(t, m, key(tea.KeyEsc))
	if !m.Closed() || cmd == nil || !s.Closed() {
		t.Fatal("esc should close the editor and the session")
	}
	if m.SavedRef() != "" {
		t.Fatalf("ref=%q", m.SavedRef())
	}
}

func TestEditor_SaveFailureStaysOpen(t *testing.T) {
	store := sampleStore()
	store.submitErr = errors.New("boom")
	_, s := openSession(t, store)
	m := NewEditorModel(context.Background(), s)
	m, _ = send(t, m, key(tea.KeyEnter))
	m.input.SetValue("edited")
	m, cmd := send(t, m, key(tea.KeyCtrlS))
	if cmd == nil {
		t.Fatal("expected save command")
	}
	m, _ = send(t, m, cmd())
	if m.Closed() || m.saving {
		t.Fatalf("closed=%v saving=%v", m.Closed(), m.saving)
	}
	if !strings.Contains(m.View(), "Save failed") {
		t.Fatalf("view:\n%s", m.View())
	}
	if m.fields[0].Translated != "edited" {
		t.Fatalf("edit lost: %+v", m.fields[0])
	}
}

func TestEditor_IgnoresResultFromOtherSession(t *testing.T) {
	_, s := openSession(t, sampleStore())
	m := NewEditorModel(context.Background(), s)
	m, cmd := send(t, m, saveResultMsg{sessionID: "other", ref: "/api/download/zzz"})
	if cmd != nil || m.Closed() || m.SavedRef() != "" {
		t.Fatalf("stale result applied: ref=%q", m.SavedRef())
	}
}

func TestEditor_SupersededSessionQuits(t *testing.T) {
	r, s := openSession(t, sampleStore())
	m := NewEditorModel(context.Background(), s)
	if _, err := r.Open(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	m, cmd := send(t, m, key(tea.KeyCtrlS))
	m, _ = send(t, m, cmd())
	if !m.Closed() || m.SavedRef() != "" {
		t.Fatalf("closed=%v ref=%q", m.Closed(), m.SavedRef())
	}
}

func TestEditor_EmptySession(t *testing.T) {
	_, s := openSession(t, &stubStore{entries: []logentry.Entry{logentry.Failure{Message: "x"}}})
	m := NewEditorModel(context.Background(), s)
	m, _ = send(t, m, key(tea.KeyEnter))
	if m.editing {
		t.Fatal("nothing to edit")
	}
	if !strings.Contains(m.View(), "No editable entries") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestEditor_ScrollFollowsCursor(t *testing.T) {
	var entries []logentry.Entry
	for i := 0; i < 20; i++ {
		entries = append(entries, logentry.Translation{Kind: logentry.KindObject, Index: i + 1, Total: 20, Raw: "r", Translated: "t"})
	}
	_, s := openSession(t, &stubStore{entries: entries})
	m := NewEditorModel(context.Background(), s)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 14})
	for i := 0; i < 10; i++ {
		m, _ = send(t, m, key(tea.KeyDown))
	}
	if m.cursor != 10 {
		t.Fatalf("cursor=%d", m.cursor)
	}
	if m.cursor < m.offset || m.cursor >= m.offset+m.visibleRows() {
		t.Fatalf("cursor %d outside window offset=%d rows=%d", m.cursor, m.offset, m.visibleRows())
	}
}
